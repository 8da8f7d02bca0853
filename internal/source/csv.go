package source

import (
	"context"
	"os"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/table"
)

// CSV loads a local CSV file with a header line.
type CSV struct {
	name     string
	path     string
	temporal []string
}

// NewCSV creates a CSV source. The temporal columns are coerced to
// timestamps; entries that do not parse become missing.
func NewCSV(name, path string, temporal ...string) *CSV {
	return &CSV{name: name, path: path, temporal: temporal}
}

// Name returns the source name.
func (s *CSV) Name() string { return s.name }

// Load reads the whole file.
func (s *CSV) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.SourceUnavailable, "open %s", s.name)
	}
	defer f.Close()

	t, err := table.ReadCSV(f, table.Options{Temporal: s.temporal})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.DecodeFailure, "parse %s", s.name)
	}
	return t, nil
}
