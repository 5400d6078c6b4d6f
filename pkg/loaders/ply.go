package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian" or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// Mesh is the triangle data read from a PLY file. Polygons are fanned into
// triangles around their first vertex.
type Mesh struct {
	Vertices []core.Vec3
	Faces    [][3]int
}

// LoadPLY loads the vertices and faces of a PLY file
func LoadPLY(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()
	return ReadPLY(file)
}

// ReadPLY reads a PLY stream. Vertex properties other than x, y and z are
// skipped, as are face properties other than vertex_indices.
func ReadPLY(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var rd valueReader
	switch header.Format {
	case "ascii":
		rd = &asciiReader{r: br}
	case "binary_little_endian":
		rd = &binaryReader{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		rd = &binaryReader{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	mesh := &Mesh{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([][3]int, 0, header.FaceCount),
	}

	for i := 0; i < header.VertexCount; i++ {
		var v core.Vec3
		for _, prop := range header.VertexProps {
			if prop.IsList {
				if err := skipList(rd, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			value, err := rd.read(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			switch prop.Name {
			case "x":
				v.X = value
			case "y":
				v.Y = value
			case "z":
				v.Z = value
			}
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
				if err := skipProperty(rd, prop); err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}
			indices, err := readList(rd, prop)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			if len(indices) < 3 {
				return nil, fmt.Errorf("face %d has %d vertices", i, len(indices))
			}
			for _, idx := range indices {
				if idx < 0 || idx >= len(mesh.Vertices) {
					return nil, fmt.Errorf("face %d references vertex %d of %d", i, idx, len(mesh.Vertices))
				}
			}
			for k := 1; k+1 < len(indices); k++ {
				mesh.Faces = append(mesh.Faces, [3]int{indices[0], indices[k], indices[k+1]})
			}
		}
	}

	return mesh, nil
}

// Triangles returns one triangle per face, skipping degenerate faces
func (m *Mesh) Triangles(material core.Material) []core.Intersectable {
	objects := make([]core.Intersectable, 0, len(m.Faces))
	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		if v1.Subtract(v0).Cross(v2.Subtract(v0)).LengthSquared() == 0 {
			continue
		}
		objects = append(objects, geometry.NewTriangle(v0, v1, v2, material))
	}
	return objects
}

// parsePLYHeader reads header lines up to and including end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string
	first := true

	for {
		raw, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			return nil, fmt.Errorf("unexpected end of header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic, got %q", line)
			}
			first = false
			continue
		}
		if line == "end_header" {
			return header, nil
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line %q", line)
			}
			header.Format, header.Version = parts[1], parts[2]
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element %q", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of header")
		}
	}
}

// parsePLYProperty parses the fields after "property"
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	if getTypeSize(parts[0]) == 0 {
		return PLYProperty{}, fmt.Errorf("unknown property type %q", parts[0])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// getTypeSize returns the size in bytes of a PLY scalar type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

type valueReader interface {
	read(dataType string) (float64, error)
}

type asciiReader struct {
	r *bufio.Reader
}

func (a *asciiReader) read(dataType string) (float64, error) {
	var token strings.Builder
	for {
		c, err := a.r.ReadByte()
		if err != nil {
			if err == io.EOF && token.Len() > 0 {
				break
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if token.Len() > 0 {
				break
			}
			continue
		}
		token.WriteByte(c)
	}
	return strconv.ParseFloat(token.String(), 64)
}

type binaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unknown type %q", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}
	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	}
	return math.Float64frombits(b.order.Uint64(data)), nil
}

func readList(rd valueReader, prop PLYProperty) ([]int, error) {
	count, err := rd.read(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("list count of %s: %w", prop.Name, err)
	}
	if count < 0 || count > math.MaxUint16 {
		return nil, fmt.Errorf("invalid list count %g for %s", count, prop.Name)
	}
	values := make([]int, int(count))
	for i := range values {
		v, err := rd.read(prop.DataType)
		if err != nil {
			return nil, fmt.Errorf("list item %d of %s: %w", i, prop.Name, err)
		}
		values[i] = int(v)
	}
	return values, nil
}

func skipList(rd valueReader, prop PLYProperty) error {
	_, err := readList(rd, prop)
	return err
}

func skipProperty(rd valueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipList(rd, prop)
	}
	_, err := rd.read(prop.Type)
	return err
}
