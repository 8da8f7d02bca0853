// Package source loads tables from the REST API, local CSV files and an
// optional read-only SQLite database.
//
// A Registry owns the sources and a read-through Cache. Loads are isolated:
// a failing source yields an empty table and a source-scoped error, and
// never affects the others.
package source

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/metrics"
	"tereborace.com/taboleiro/internal/table"
)

// Source produces a table.
type Source interface {
	Name() string
	Load(ctx context.Context) (*table.Table, error)
}

// Result is the outcome of loading one source.
type Result struct {
	Name  string
	Table *table.Table
	Err   error
}

// Registry holds the named sources.
type Registry struct {
	sources map[string]Source
	cache   *Cache
	log     *zap.Logger
	closers []func() error
}

// NewRegistry creates a registry over the given sources.
func NewRegistry(cache *Cache, log *zap.Logger, sources ...Source) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{sources: make(map[string]Source), cache: cache, log: log}
	for _, s := range sources {
		r.Add(s)
	}
	return r
}

// Build creates the registry described by the configuration.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Registry, error) {
	r := NewRegistry(NewCache(cfg.Cache.TTL, nil), log)
	for name, url := range cfg.Sources.REST.Endpoints {
		r.Add(NewREST(name, url, cfg.Sources.REST.Timeout))
	}
	for _, c := range cfg.Sources.CSV {
		r.Add(NewCSV(c.Name, c.Path, c.Temporal...))
	}
	if cfg.Sources.SQLite.Path != "" {
		db, err := OpenSQLite(cfg.Sources.SQLite.Path)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Configuration, "open sqlite %s", cfg.Sources.SQLite.Path)
		}
		tables := cfg.Sources.SQLite.Tables
		if len(tables) == 0 {
			if tables, err = db.Tables(ctx); err != nil {
				db.Close()
				return nil, apperr.Wrap(err, apperr.Configuration, "list sqlite tables")
			}
		}
		r.closers = append(r.closers, db.Close)
		for _, t := range tables {
			r.Add(db.Source(t))
		}
	}
	return r, nil
}

// Add registers s, replacing any source with the same name.
func (r *Registry) Add(s Source) { r.sources[s.Name()] = s }

// Has reports whether a source is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.sources[name]
	return ok
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sources))
	for n := range r.sources {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Load returns the table of one source through the cache. On failure the
// table is empty, never nil.
func (r *Registry) Load(ctx context.Context, name string) (*table.Table, error) {
	s, ok := r.sources[name]
	if !ok {
		return table.Empty(), apperr.New(apperr.Configuration, "unknown source %q", name)
	}
	t, err := r.cache.Get(ctx, name, func(ctx context.Context) (*table.Table, error) {
		timer := metrics.NewTimer()
		t, err := s.Load(ctx)
		metrics.SourceLoadDuration.WithLabelValues(name).Observe(timer.Seconds())
		metrics.SourceLoads.WithLabelValues(name, metrics.Result(err)).Inc()
		return t, err
	})
	if err != nil {
		r.log.Warn("source load failed",
			zap.String("source", name),
			zap.String("type", string(apperr.TypeOf(err))),
			zap.Error(err))
		return table.Empty(), err
	}
	return t, nil
}

// LoadAll loads every source concurrently. Results are sorted by name.
func (r *Registry) LoadAll(ctx context.Context) []Result {
	names := r.Names()
	out := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t, err := r.Load(ctx, n)
			out[i] = Result{Name: n, Table: t, Err: err}
		}()
	}
	wg.Wait()
	return out
}

// Refresh invalidates the cache so the next reads fetch again.
func (r *Registry) Refresh() {
	r.cache.Invalidate()
	r.log.Info("cache invalidated")
}

// Close releases database handles.
func (r *Registry) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
