package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/table"
)

// REST loads a JSON array of flat objects from an HTTP endpoint.
type REST struct {
	name   string
	url    string
	client *http.Client
}

// NewREST creates a REST source. A zero timeout means no client timeout.
func NewREST(name, url string, timeout time.Duration) *REST {
	return &REST{name: name, url: url, client: &http.Client{Timeout: timeout}}
}

// Name returns the source name.
func (s *REST) Name() string { return s.name }

// Load fetches and decodes the endpoint.
func (s *REST) Load(ctx context.Context) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Configuration, "bad url for %s", s.name)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.SourceUnavailable, "fetch %s", s.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drenar para reutilizar a conexión
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, apperr.New(apperr.SourceUnavailable, "fetch %s: HTTP %d", s.name, resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}

	names, records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.DecodeFailure, "decode %s", s.name)
	}
	t, err := table.FromRecords(names, records, table.Options{})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.DecodeFailure, "build %s", s.name)
	}
	return t, nil
}

// decodeRecords reads a JSON array of objects, keeping the column order in
// which keys first appear. Nested values are kept as their JSON text.
func decodeRecords(r io.Reader) ([]string, []map[string]any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()

	token, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read array start: %w", err)
	}
	if delim, ok := token.(gojson.Delim); !ok || delim != '[' {
		return nil, nil, fmt.Errorf("expected JSON array, got %v", token)
	}

	var names []string
	seen := make(map[string]bool)
	records := []map[string]any{}
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		if delim, ok := token.(gojson.Delim); !ok || delim != '{' {
			return nil, nil, fmt.Errorf("record %d: expected object, got %v", len(records), token)
		}
		rec := make(map[string]any)
		for dec.More() {
			token, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("record %d: %w", len(records), err)
			}
			key, ok := token.(string)
			if !ok {
				return nil, nil, fmt.Errorf("record %d: bad key %v", len(records), token)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, nil, fmt.Errorf("record %d, field %q: %w", len(records), key, err)
			}
			rec[key] = flatten(v)
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
		if _, err := dec.Token(); err != nil { // '}'
			return nil, nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return nil, nil, fmt.Errorf("read array end: %w", err)
	}
	return names, records, nil
}

func flatten(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := gojson.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return v
}
