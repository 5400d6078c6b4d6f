package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
	"github.com/df07/go-raytracer-accel/pkg/renderer"
)

// InspectResponse represents the response for pixel inspection
type InspectResponse struct {
	Hit          bool       `json:"hit"`
	Origin       [3]float64 `json:"origin"`
	Direction    [3]float64 `json:"direction"`
	Time         float64    `json:"time"`
	T            float64    `json:"t,omitempty"`
	Distance     float64    `json:"distance,omitempty"`
	Point        [3]float64 `json:"point,omitempty"`
	Normal       [3]float64 `json:"normal,omitempty"`
	U            float64    `json:"u,omitempty"`
	V            float64    `json:"v,omitempty"`
	FrontFace    bool       `json:"frontFace"`
	MaterialName string     `json:"materialName,omitempty"`
	GeometryType string     `json:"geometryType,omitempty"`
}

// handleInspect casts the camera ray through one pixel and reports the nearest hit
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseSceneRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	x, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	y, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, camera, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := renderer.DefaultConfig()
	config.Seed = req.Scene.Seed
	rt, err := renderer.NewRaytracer(sceneObj.World, camera, config, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ray, hit, isHit, err := rt.CastPixel(x, y)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := InspectResponse{
		Hit:       isHit,
		Origin:    toArray(ray.Origin),
		Direction: toArray(ray.Direction),
		Time:      ray.Time,
	}
	if isHit {
		response.T = hit.T
		response.Distance = hit.T * ray.Direction.Length()
		response.Point = toArray(hit.Point)
		response.Normal = toArray(hit.Normal)
		response.U, response.V = hit.U, hit.V
		response.FrontFace = hit.FrontFace
		response.MaterialName = materialName(hit.Material)
		response.GeometryType = geometryType(sceneObj.Objects, ray, hit)
	}
	writeJSON(w, http.StatusOK, response)
}

func materialName(m core.Material) string {
	switch v := m.(type) {
	case nil:
		return ""
	case core.Named:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%T", m)
}

// geometryType finds the leaf that produced hit. The world only hands back
// the record, so the leaves are queried again at the hit distance.
func geometryType(objects []core.Intersectable, ray core.Ray, hit core.HitRecord) string {
	const eps = 1e-9
	for _, object := range objects {
		if h, ok := object.Hit(ray, hit.T-eps, hit.T+eps); ok && h.Material == hit.Material {
			return shapeName(object)
		}
	}
	if hit.Material == core.Material(core.Named("ground")) {
		return "plane"
	}
	return "unknown"
}

func shapeName(object core.Intersectable) string {
	switch object.(type) {
	case *geometry.Sphere:
		return "sphere"
	case *geometry.Triangle:
		return "triangle"
	case *geometry.Plane:
		return "plane"
	case *geometry.Instance:
		return "instance"
	}
	return fmt.Sprintf("%T", object)
}
