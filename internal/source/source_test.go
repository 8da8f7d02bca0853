package source

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/table"
)

const eventosJSON = `[
  {"id_evento": 1, "nombre_evento": "Feria", "fecha_evento": "2024-05-01T10:00:00", "cupo_maximo": 100, "activo": true, "extra": {"a": 1}},
  {"id_evento": 2, "nombre_evento": "Charla", "fecha_evento": "2024-05-03", "cupo_maximo": null, "activo": false}
]`

type fakeSource struct {
	name  string
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Load(ctx context.Context) (*table.Table, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return table.FromRows([]string{"n"}, [][]any{{1}, {2}}, table.Options{})
}

func TestRESTLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventosJSON))
	}))
	defer srv.Close()

	tb, err := NewREST("eventos", srv.URL, time.Second).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id_evento", "nombre_evento", "fecha_evento", "cupo_maximo", "activo", "extra"}, tb.Names())
	assert.Equal(t, 2, tb.Len())

	kinds := tb.Kinds()
	assert.Equal(t, table.Numeric, kinds["id_evento"])
	assert.Equal(t, table.Temporal, kinds["fecha_evento"])
	assert.Equal(t, table.Categorical, kinds["activo"])

	cupo, _ := tb.Column("cupo_maximo")
	assert.True(t, cupo.IsMissing(1))
	extra, _ := tb.Column("extra")
	assert.Equal(t, `{"a":1}`, extra.Text(0))
	assert.True(t, extra.IsMissing(1))
}

func TestRESTErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/html":
			_, _ = w.Write([]byte("<html>nope</html>"))
		case "/object":
			_, _ = w.Write([]byte(`{"detail": "x"}`))
		}
	}))
	defer srv.Close()

	_, err := NewREST("a", srv.URL+"/broken", time.Second).Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.SourceUnavailable))

	_, err = NewREST("b", srv.URL+"/html", time.Second).Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.DecodeFailure))

	_, err = NewREST("c", srv.URL+"/object", time.Second).Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.DecodeFailure))

	_, err = NewREST("d", "http://127.0.0.1:1/none", time.Second).Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.SourceUnavailable))
}

func TestRESTEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tb, err := NewREST("vacio", srv.URL, time.Second).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tb.Len())
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ev.csv")
	data := "marca_auto,autonomia_km,fecha_registro\nTesla,500,2024-01-15\nNissan,270,sin fecha\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	tb, err := NewCSV("ev", path, "fecha_registro").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	fecha, _ := tb.Column("fecha_registro")
	assert.Equal(t, table.Temporal, fecha.Kind)
	assert.True(t, fecha.IsMissing(1))

	_, err = NewCSV("nope", filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.SourceUnavailable))
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.sqlite")
	w, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = w.Exec(`CREATE TABLE profesores (nombre TEXT, edad INTEGER, alta DATE);
		INSERT INTO profesores VALUES ('Ana', 40, '2020-09-01'), ('Luis', NULL, '2021-02-15');
		CREATE TABLE profesores_files (id INTEGER);`)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	names, err := db.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"profesores"}, names)

	tb, err := db.Source("profesores").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, map[string]table.Kind{
		"nombre": table.Categorical, "edad": table.Numeric, "alta": table.Temporal,
	}, tb.Kinds())

	_, err = db.db.Exec(`INSERT INTO profesores VALUES ('X', 1, '2022-01-01')`)
	assert.Error(t, err, "query_only")

	_, err = db.Source("nope").Load(context.Background())
	assert.True(t, apperr.IsType(err, apperr.Configuration))
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute, func() time.Time { return now })
	src := &fakeSource{name: "a"}

	for range 3 {
		_, err := c.Get(context.Background(), "a", src.Load)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, src.calls.Load())

	now = now.Add(61 * time.Second)
	_, err := c.Get(context.Background(), "a", src.Load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
	_, err = c.Get(context.Background(), "a", src.Load)
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := NewCache(time.Minute, nil)
	src := &fakeSource{name: "a", err: errors.New("down")}
	_, err := c.Get(context.Background(), "a", src.Load)
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "a", src.Load)
	assert.Error(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCacheCoalescesMisses(t *testing.T) {
	c := NewCache(time.Minute, nil)
	src := &fakeSource{name: "a", delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "a", src.Load)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

func TestCacheSharedLoadOutlivesCancelledCaller(t *testing.T) {
	c := NewCache(time.Minute, nil)
	src := &fakeSource{name: "a", delay: 100 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "a", src.Load)
		first <- err
	}()
	time.Sleep(10 * time.Millisecond)

	second := make(chan error, 1)
	go func() {
		tb, err := c.Get(context.Background(), "a", src.Load)
		if err == nil && tb.Len() != 2 {
			err = errors.New("unexpected table")
		}
		second <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-first, context.Canceled)
	require.NoError(t, <-second)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestRegistryIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/profesores" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(eventosJSON))
	}))
	defer srv.Close()

	reg := NewRegistry(NewCache(time.Minute, nil), zaptest.NewLogger(t),
		NewREST("eventos", srv.URL+"/eventos", time.Second),
		NewREST("profesores", srv.URL+"/profesores", time.Second),
	)
	results := reg.LoadAll(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, "eventos", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 2, results[0].Table.Len())

	assert.Equal(t, "profesores", results[1].Name)
	assert.True(t, apperr.IsType(results[1].Err, apperr.SourceUnavailable))
	require.NotNil(t, results[1].Table)
	assert.Equal(t, 0, results[1].Table.Len())
}

func TestRegistryUnknownAndRefresh(t *testing.T) {
	src := &fakeSource{name: "a"}
	reg := NewRegistry(NewCache(time.Minute, nil), zaptest.NewLogger(t), src)

	tb, err := reg.Load(context.Background(), "zzz")
	assert.True(t, apperr.IsType(err, apperr.Configuration))
	assert.Equal(t, 0, tb.Len())

	_, err = reg.Load(context.Background(), "a")
	require.NoError(t, err)
	_, err = reg.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())

	reg.Refresh()
	_, err = reg.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestBuildFromConfig(t *testing.T) {
	cfg := config.Default()
	reg, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reg.Close()
	assert.Equal(t, []string{
		"asistenciaeventos", "categoriaevento", "estudiantes", "eventos",
		"participantes", "profesores", config.EVSourceName,
	}, reg.Names())
}
