package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/renderer"
	"github.com/df07/go-raytracer-accel/pkg/scene"
)

// Server serves renders and ray inspection over HTTP
type Server struct {
	port   int
	logger core.Logger
}

// NewServer creates a new web server
func NewServer(port int, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Server{port: port, logger: logger}
}

// SceneRequest carries the scene and image parameters shared by all endpoints
type SceneRequest struct {
	Scene  scene.Config
	Width  int
	Height int
	Mode   string
}

// StatsResponse describes the acceleration structure built for a scene
type StatsResponse struct {
	Scene      string     `json:"scene"`
	Accel      string     `json:"accel"`
	Objects    int        `json:"objects"`
	TotalNodes int        `json:"totalNodes,omitempty"`
	LeafCount  int        `json:"leafCount,omitempty"`
	MaxDepth   int        `json:"maxDepth,omitempty"`
	AvgDepth   float64    `json:"avgDepth,omitempty"`
	BoundsMin  *[3]float64 `json:"boundsMin,omitempty"`
	BoundsMax  *[3]float64 `json:"boundsMax,omitempty"`
}

// maxObjects caps the number of leaves a request may generate
const maxObjects = 100000

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Printf("Starting web server on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRender renders the requested scene and returns it as PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseSceneRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, camera, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := renderer.DefaultConfig()
	config.Mode = req.Mode
	config.Seed = req.Scene.Seed
	rt, err := renderer.NewRaytracer(sceneObj.World, camera, config, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, _, err := rt.Render(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.logger.Printf("Error encoding render: %v\n", err)
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleStats reports the shape of the acceleration structure
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	req, err := parseSceneRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, _, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := StatsResponse{
		Scene:   req.Scene.Kind,
		Accel:   req.Scene.Accel,
		Objects: len(sceneObj.Objects),
	}
	if sceneObj.Bounds.IsValid() {
		boundsMin, boundsMax := toArray(sceneObj.Bounds.Min), toArray(sceneObj.Bounds.Max)
		response.BoundsMin, response.BoundsMax = &boundsMin, &boundsMax
	}
	if sceneObj.BVH != nil {
		stats := sceneObj.BVH.Stats()
		response.TotalNodes = stats.TotalNodes
		response.LeafCount = stats.LeafCount
		response.MaxDepth = stats.MaxDepth
		response.AvgDepth = stats.AvgDepth
	}
	writeJSON(w, http.StatusOK, response)
}

// createScene builds the requested scene and a camera framing it
func (s *Server) createScene(req *SceneRequest) (*scene.Scene, *renderer.Camera, error) {
	sceneObj, err := scene.Build(req.Scene, s.logger)
	if err != nil {
		return nil, nil, err
	}

	cameraConfig := renderer.FrameBox(sceneObj.Bounds, req.Width, float64(req.Width)/float64(req.Height))
	cameraConfig.Time0, cameraConfig.Time1 = req.Scene.Time0, req.Scene.Time1
	return sceneObj, renderer.NewCamera(cameraConfig), nil
}

// parseSceneRequest reads scene parameters from the query string
func parseSceneRequest(r *http.Request) (*SceneRequest, error) {
	query := r.URL.Query()
	req := &SceneRequest{
		Scene:  scene.DefaultConfig(),
		Width:  400,
		Height: 225,
		Mode:   renderer.DefaultConfig().Mode,
	}

	if v := query.Get("scene"); v != "" {
		req.Scene.Kind = v
	}
	if v := query.Get("accel"); v != "" {
		req.Scene.Accel = v
	}
	if v := query.Get("mode"); v != "" {
		req.Mode = v
	}

	ints := []struct {
		name   string
		target *int
		min    int
		max    int
	}{
		{"count", &req.Scene.Count, 0, maxObjects},
		{"width", &req.Width, 1, 2000},
		{"height", &req.Height, 1, 2000},
	}
	for _, param := range ints {
		v := query.Get(param.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", param.name, err)
		}
		if n < param.min || n > param.max {
			return nil, fmt.Errorf("%s must be between %d and %d", param.name, param.min, param.max)
		}
		*param.target = n
	}

	if v := query.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed: %w", err)
		}
		req.Scene.Seed = seed
	}
	if v := query.Get("motion"); v != "" {
		motion, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid motion: %w", err)
		}
		req.Scene.Motion = motion
	}

	// A grid count is its side length
	if req.Scene.Kind == "grid" && req.Scene.Count*req.Scene.Count > maxObjects {
		return nil, fmt.Errorf("grid of %d x %d exceeds %d objects", req.Scene.Count, req.Scene.Count, maxObjects)
	}

	return req, nil
}

// writeJSON encodes body before writing any header. A body that cannot be
// encoded is replaced by a 500 error.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(map[string]string{"error": "encoding response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
