package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndIsType(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(base, SourceUnavailable, "loading %s", "eventos")

	assert.True(t, IsType(err, SourceUnavailable))
	assert.False(t, IsType(err, DecodeFailure))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "source_unavailable: loading eventos: connection refused", err.Error())

	outer := fmt.Errorf("page: %w", err)
	assert.True(t, IsType(outer, SourceUnavailable))
	assert.Equal(t, SourceUnavailable, TypeOf(outer))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, DecodeFailure, "nothing"))
}

func TestNestedTypes(t *testing.T) {
	inner := New(DecodeFailure, "bad json")
	err := Wrap(inner, SourceUnavailable, "estudiantes")
	assert.True(t, IsType(err, DecodeFailure))
	assert.True(t, IsType(err, SourceUnavailable))
}

func TestWithDetail(t *testing.T) {
	err := New(Configuration, "unknown source").WithDetail("source", "x")
	assert.Equal(t, "x", err.Details["source"])
}
