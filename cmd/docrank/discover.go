package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/pipeline"
)

// discoverSources reads every non-hidden regular file in dir, sorted by
// name. Files that cannot be read are kept with their error so the run
// reports them as parse failures.
func discoverSources(dir string) ([]pipeline.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var sources []pipeline.Source
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			sources = append(sources, pipeline.Source{Name: name, Err: fmt.Errorf("read %s: %w", name, err)})
			continue
		}
		sources = append(sources, pipeline.Source{Name: name, Data: data})
	}
	return sources, nil
}
