// Package storage persists finished simulation cycles: run metadata plus the
// temperature, displacement and label fields of the grid.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/mixture"
)

var ErrRunNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Timestamp          time.Time          `json:"timestamp"`
	SliceID            int                `json:"slice_id"`
	Rows               int                `json:"rows"`
	Cols               int                `json:"cols"`
	ThermalIterations  int                `json:"thermal_iterations"`
	MechIterations     int                `json:"mech_iterations"`
	ChemicalIterations int                `json:"chemical_iterations"`
	AmbientTemperature float64            `json:"ambient_temperature"`
	Load               float64            `json:"load"`
	Materials          engine.Params      `json:"materials"`
	Metrics            map[string]float64 `json:"metrics"`
}

// Fields is the per-cell output of a cycle.
type Fields struct {
	Temperature  [][]float64 `json:"temperature"`
	Displacement [][]float64 `json:"displacement"`
	Labels       [][]int     `json:"labels"`
}

func FieldsFromGrid(g *mixture.Grid) *Fields {
	return &Fields{
		Temperature:  g.Temperatures(),
		Displacement: g.Displacements(),
		Labels:       g.Labels(),
	}
}

type Store interface {
	Save(meta RunMetadata, fields *Fields) (string, error)
	List() ([]RunMetadata, error)
	Load(runID string) (*RunMetadata, error)
	LoadFields(runID string) (*Fields, error)
	Close() error
}

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverSQLite     Driver = "sqlite"
)

// SQLiteFile is the database name used inside the data directory.
const SQLiteFile = "runs.db"

// Open selects a Store for driver rooted at dataDir.
func Open(driver Driver, dataDir string) (Store, error) {
	switch driver {
	case DriverFilesystem, "":
		s := NewFS(dataDir)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		return NewSQLite(filepath.Join(dataDir, SQLiteFile))
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}

func newRunID(meta RunMetadata) string {
	name := meta.Name
	if name == "" {
		name = fmt.Sprintf("slice%d", meta.SliceID)
	}
	return fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
}

// prepare fills the generated metadata fields before a save.
func prepare(meta *RunMetadata, fields *Fields) error {
	if fields == nil {
		return errors.New("storage: nil fields")
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = newRunID(*meta)
	}
	meta.Rows = len(fields.Temperature)
	if meta.Rows > 0 {
		meta.Cols = len(fields.Temperature[0])
	}
	return nil
}
