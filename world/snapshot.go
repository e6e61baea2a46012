package world

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pthm-cable/grains/model"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is the serialized form of a State, including its saved initial
// configuration.
type Snapshot struct {
	Version int `json:"version"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Step   int `json:"step"`

	Cells  []int             `json:"cells"`
	Ages   []int             `json:"ages"`
	Fields map[int][]float64 `json:"fields,omitempty"`

	Initial *Snapshot `json:"initial,omitempty"`
}

// Snapshot captures the state for serialization.
func (s *State) Snapshot() *Snapshot {
	c := s.Clone()
	snap := &Snapshot{
		Version: SnapshotVersion,
		Width:   c.Width,
		Height:  c.Height,
		Step:    c.Step,
		Cells:   c.Cells,
		Ages:    c.Ages,
		Fields:  c.Fields,
	}
	if s.initial != nil {
		snap.Initial = s.initial.Snapshot()
	}
	return snap
}

// Restore rebuilds a State from a snapshot, checking every slice length,
// that grains are model.Empty or an ID, ages are non-negative and levels lie
// in [0, 1].
func (snap *Snapshot) Restore() (*State, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	s, err := New(snap.Width, snap.Height)
	if err != nil {
		return nil, err
	}
	n := s.Len()
	if len(snap.Cells) != n || len(snap.Ages) != n {
		return nil, fmt.Errorf("%w: snapshot has %d cells and %d ages for %dx%d grid",
			ErrDimensionMismatch, len(snap.Cells), len(snap.Ages), snap.Width, snap.Height)
	}
	for i := range n {
		if snap.Cells[i] < model.Empty {
			return nil, fmt.Errorf("%w: cell %d holds grain %d", ErrInvalidState, i, snap.Cells[i])
		}
		if snap.Ages[i] < 0 {
			return nil, fmt.Errorf("%w: cell %d has age %d", ErrInvalidState, i, snap.Ages[i])
		}
	}
	copy(s.Cells, snap.Cells)
	copy(s.Ages, snap.Ages)
	for id, levels := range snap.Fields {
		if len(levels) != n {
			return nil, fmt.Errorf("%w: field %d has %d levels for %d cells", ErrDimensionMismatch, id, len(levels), n)
		}
		for i, v := range levels {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: field %d level %v at cell %d", ErrInvalidState, id, v, i)
			}
		}
		copy(s.EnsureField(id), levels)
	}
	s.Step = snap.Step
	if snap.Initial != nil {
		initial, err := snap.Initial.Restore()
		if err != nil {
			return nil, fmt.Errorf("initial configuration: %w", err)
		}
		if initial.Width != s.Width || initial.Height != s.Height {
			return nil, fmt.Errorf("%w: initial configuration is %dx%d", ErrDimensionMismatch, initial.Width, initial.Height)
		}
		s.initial = initial
	}
	return s, nil
}

// WriteJSON writes the state snapshot to path.
func (s *State) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot writes the state into dir as snapshot_<step>.json and returns
// the file path.
func SaveSnapshot(s *State, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", s.Step))
	if err := s.WriteJSON(path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSnapshot reads a state snapshot from disk.
func LoadSnapshot(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap.Restore()
}
