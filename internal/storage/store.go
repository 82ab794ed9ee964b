package storage

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrNodeNotRecorded = errors.New("storage: node not in recording")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Dims       string             `json:"dims"`
	Nodes      int                `json:"nodes"`
	Dt         float64            `json:"dt"`
	Frames     int                `json:"frames"`
	SampleRate int                `json:"sample_rate"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Row is one node's position at one sampled frame.
type Row struct {
	Step int     `csv:"step"`
	Time float64 `csv:"time"`
	Node int     `csv:"node"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
}

// Save writes the run's metadata and sampled frames under a fresh run id.
func (s *Store) Save(meta RunMetadata, frames []dynamo.Frame) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	name := meta.Preset
	if name == "" {
		name = "grid"
	}
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}

	rows := make([]Row, 0, len(frames)*meta.Nodes)
	for _, f := range frames {
		for i, p := range f.Positions {
			rows = append(rows, Row{Step: f.Step, Time: f.Time, Node: i, X: p.X, Y: p.Y, Z: p.Z})
		}
	}
	err = writeFile(filepath.Join(runDir, framesFile), func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
	if err != nil {
		return "", fmt.Errorf("writing frames: %w", err)
	}

	return meta.ID, nil
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []RunMetadata{}, nil
	} else if err != nil {
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return b.Timestamp.Compare(a.Timestamp) })
	return runs, nil
}

// writeFile creates path and hands it to fill, reporting close errors.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fill(f)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) loadRows(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []Row{}, nil
		}
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	return rows, nil
}

// LoadFrames rebuilds the sampled frames of a run in step order.
func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	rows, err := s.loadRows(runID)
	if err != nil {
		return nil, err
	}

	frames := make([]dynamo.Frame, 0)
	index := make(map[int]int)
	for _, r := range rows {
		fi, ok := index[r.Step]
		if !ok {
			fi = len(frames)
			index[r.Step] = fi
			frames = append(frames, dynamo.Frame{Step: r.Step, Time: r.Time})
		}
		f := &frames[fi]
		for len(f.Positions) <= r.Node {
			f.Positions = append(f.Positions, r3.Vec{})
		}
		f.Positions[r.Node] = r3.Vec{X: r.X, Y: r.Y, Z: r.Z}
	}

	slices.SortFunc(frames, func(a, b dynamo.Frame) int { return cmp.Compare(a.Step, b.Step) })
	return frames, nil
}

// LoadTrace returns one node's position over the sampled frames.
func (s *Store) LoadTrace(runID string, node int) ([]float64, []r3.Vec, error) {
	rows, err := s.loadRows(runID)
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0)
	trace := make([]r3.Vec, 0)
	for _, r := range rows {
		if r.Node != node {
			continue
		}
		times = append(times, r.Time)
		trace = append(trace, r3.Vec{X: r.X, Y: r.Y, Z: r.Z})
	}

	if len(trace) == 0 && len(rows) > 0 {
		return nil, nil, fmt.Errorf("node %d: %w", node, ErrNodeNotRecorded)
	}
	return times, trace, nil
}
