package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Fields *Fields     `json:"fields"`
}

// ExportJSON writes a run and its fields to path, or to stdout when path is
// empty or "-".
func ExportJSON(path string, meta *RunMetadata, fields *Fields) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, meta, fields)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, fields)
}

func WriteJSON(w io.Writer, meta *RunMetadata, fields *Fields) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Fields: fields})
}
