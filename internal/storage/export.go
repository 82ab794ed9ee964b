package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/massgrid/internal/dynamo"
)

type ExportFrame struct {
	Step      int          `json:"step"`
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
}

type ExportData struct {
	Meta   RunMetadata   `json:"meta"`
	Frames []ExportFrame `json:"frames"`
}

func NewExportData(meta RunMetadata, frames []dynamo.Frame) ExportData {
	data := ExportData{Meta: meta, Frames: make([]ExportFrame, len(frames))}
	for i, f := range frames {
		ef := ExportFrame{Step: f.Step, Time: f.Time, Positions: make([][3]float64, len(f.Positions))}
		for j, p := range f.Positions {
			ef.Positions[j] = [3]float64{p.X, p.Y, p.Z}
		}
		data.Frames[i] = ef
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, frames []dynamo.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, frames)
}

func WriteJSON(w io.Writer, meta RunMetadata, frames []dynamo.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, frames))
}
