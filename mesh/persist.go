package mesh

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// meshFile is the on-disk JSON layout. Connectivity round-trips
// exactly; positions round-trip to full float64 precision.
type meshFile struct {
	Faces     [][]int  `json:"faces"`
	Positions []r3.Vec `json:"positions"`
}

// Write persists the mesh connectivity and 3-D positions at path.
func Write(path string, m *Mesh, pos []r3.Vec) error {
	data, err := json.Marshal(meshFile{Faces: m.Faces, Positions: pos})
	if err != nil {
		return fmt.Errorf("mesh: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("mesh: write %s: %w", path, err)
	}
	return nil
}

// Read loads a mesh and positions previously stored with Write.
func Read(path string) (*Mesh, []r3.Vec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}
	var mf meshFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, nil, fmt.Errorf("mesh: decode %s: %w", path, err)
	}
	return &Mesh{Faces: mf.Faces}, mf.Positions, nil
}

// Checkpoint file names encode the accepted-iteration count so a
// restarted run resumes its numbering.
var checkpointRe = regexp.MustCompile(`^flop-(\d+)\.json$`)

// CheckpointName returns the canonical checkpoint file name for an
// iteration count, e.g. "flop-00000123.json".
func CheckpointName(iter int) string {
	return fmt.Sprintf("flop-%08d.json", iter)
}

// IterFromName recovers the iteration count encoded in a checkpoint
// path, or ok=false when the name does not follow CheckpointName.
func IterFromName(path string) (iter int, ok bool) {
	m := checkpointRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
