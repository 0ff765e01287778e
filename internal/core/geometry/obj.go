package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zeusync/crowdnav/internal/core/navigation"
)

// LoadOBJ reads vertex and face records of a Wavefront OBJ stream. Faces with
// more than three corners are fanned around their first corner; texture and
// normal indices are ignored, negative indices count from the last vertex.
func LoadOBJ(r io.Reader) (navigation.Geometry, error) {
	var verts []float32
	var faces []int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return navigation.Geometry{}, fmt.Errorf("%w: obj line %d: vertex needs 3 coordinates", navigation.ErrInvalidInput, line)
			}
			for _, f := range fields[1:4] {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return navigation.Geometry{}, fmt.Errorf("%w: obj line %d: %w", navigation.ErrInvalidInput, line, err)
				}
				verts = append(verts, float32(v))
			}
		case "f":
			if len(fields) < 4 {
				return navigation.Geometry{}, fmt.Errorf("%w: obj line %d: face needs 3 corners", navigation.ErrInvalidInput, line)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, f := range fields[1:] {
				idx, err := objIndex(f, len(verts)/3)
				if err != nil {
					return navigation.Geometry{}, fmt.Errorf("%w: obj line %d: %w", navigation.ErrInvalidInput, line, err)
				}
				corners = append(corners, idx)
			}
			for i := 2; i < len(corners); i++ {
				faces = append(faces, corners[0], corners[i-1], corners[i])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return navigation.Geometry{}, fmt.Errorf("read obj: %w", err)
	}
	return Raw(verts, faces)
}

// LoadOBJFile opens path and parses it with LoadOBJ.
func LoadOBJFile(path string) (navigation.Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return navigation.Geometry{}, err
	}
	defer f.Close()
	return LoadOBJ(f)
}

func objIndex(token string, nverts int) (int, error) {
	if i := strings.IndexByte(token, '/'); i >= 0 {
		token = token[:i]
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0:
		return nverts + n, nil
	default:
		return 0, fmt.Errorf("face index 0 is not valid")
	}
}
