package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxCollisions bounds the _N suffixes tried for one timestamp.
const maxCollisions = 1000

// PersistenceError means the report could not be written. It is fatal for
// the run.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persist report: %v", e.Err)
	}
	return fmt.Sprintf("persist report %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Writer writes reports into Dir as json or yaml.
type Writer struct {
	Dir    string
	Format string
}

// Write stores r under a name derived from r.GeneratedAt and returns the
// path. Existing files are never overwritten; a collision gets a _N suffix.
func (w Writer) Write(r *Report) (string, error) {
	data, ext, err := w.encode(r)
	if err != nil {
		return "", &PersistenceError{Err: err}
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", &PersistenceError{Path: w.Dir, Err: err}
	}

	base := "output_" + r.GeneratedAt.Format("20060102_150405")
	for i := 0; i < maxCollisions; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(w.Dir, name)

		f, err := createExclusive(path)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &PersistenceError{Path: path, Err: err}
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", &PersistenceError{Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", &PersistenceError{Path: path, Err: err}
		}
		return path, nil
	}
	return "", &PersistenceError{Path: filepath.Join(w.Dir, base+ext), Err: errors.New("too many reports with the same timestamp")}
}

// createExclusive creates path, failing with fs.ErrExist if it is taken.
var createExclusive = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (w Writer) encode(r *Report) ([]byte, string, error) {
	switch w.Format {
	case "", "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), ".json", nil
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, "", fmt.Errorf("encode yaml: %w", err)
		}
		return data, ".yaml", nil
	default:
		return nil, "", fmt.Errorf("unknown output format %q", w.Format)
	}
}
