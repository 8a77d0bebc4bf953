package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const (
	metadataFile     = "metadata.json"
	temperatureFile  = "temperature.csv"
	displacementFile = "displacement.csv"
	labelsFile       = "labels.csv"
)

// FS keeps one directory per run under baseDir.
type FS struct {
	baseDir string
}

func NewFS(baseDir string) *FS {
	return &FS{baseDir: baseDir}
}

func (s *FS) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FS) Close() error { return nil }

func (s *FS) Save(meta RunMetadata, fields *Fields) (string, error) {
	if err := prepare(&meta, fields); err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeMatrix(filepath.Join(runDir, temperatureFile), formatFloats(fields.Temperature)); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, displacementFile), formatFloats(fields.Displacement)); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, labelsFile), formatInts(fields.Labels)); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *FS) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *FS) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FS) LoadFields(runID string) (*Fields, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, err
	}
	runDir := filepath.Join(s.baseDir, runID)

	var f Fields
	var err error
	if f.Temperature, err = readFloats(filepath.Join(runDir, temperatureFile)); err != nil {
		return nil, err
	}
	if f.Displacement, err = readFloats(filepath.Join(runDir, displacementFile)); err != nil {
		return nil, err
	}
	if f.Labels, err = readInts(filepath.Join(runDir, labelsFile)); err != nil {
		return nil, err
	}
	return &f, nil
}

func formatFloats(m [][]float64) [][]string {
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return out
}

func formatInts(m [][]int) [][]string {
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = strconv.Itoa(v)
		}
	}
	return out
}

func writeMatrix(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

func readMatrix(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	return r.ReadAll()
}

func readFloats(path string) ([][]float64, error) {
	records, err := readMatrix(path)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(records))
	for i, rec := range records {
		out[i] = make([]float64, len(rec))
		for j, s := range rec {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func readInts(path string) ([][]int, error) {
	records, err := readMatrix(path)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(records))
	for i, rec := range records {
		out[i] = make([]int, len(rec))
		for j, s := range rec {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}
