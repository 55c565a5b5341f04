package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireStringReturnsValidationErrorWhenMissing(t *testing.T) {
	args := Args{}
	_, err := args.requireString("file")
	require.Error(t, err)
	assert.Equal(t, ValidationError{Param: "file"}, err)
}

func TestRequireStringReturnsValidationErrorWhenEmpty(t *testing.T) {
	args := Args{"file": ""}
	_, err := args.requireString("file")
	require.Error(t, err)
}

func TestRequireStringReturnsValidationErrorWhenWrongType(t *testing.T) {
	args := Args{"file": 42}
	_, err := args.requireString("file")
	require.Error(t, err)
}

func TestRequireStringReturnsValue(t *testing.T) {
	args := Args{"file": "main.go"}
	v, err := args.requireString("file")
	require.NoError(t, err)
	assert.Equal(t, "main.go", v)
}

func TestOptionalStringMissingReturnsFalse(t *testing.T) {
	args := Args{}
	_, ok := args.optionalString("file")
	assert.False(t, ok)
}

func TestRequireIntAcceptsFloat64FromJSON(t *testing.T) {
	args := Args{"line": float64(12)}
	v, err := args.requireInt("line")
	require.NoError(t, err)
	assert.Equal(t, 12, v)
}

func TestRequireIntAcceptsPlainInt(t *testing.T) {
	args := Args{"line": 7}
	v, err := args.requireInt("line")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRequireIntReturnsValidationErrorForWrongType(t *testing.T) {
	args := Args{"line": "seven"}
	_, err := args.requireInt("line")
	require.Error(t, err)
	assert.Equal(t, ValidationError{Param: "line"}, err)
}

func TestRequireIntReturnsValidationErrorWhenMissing(t *testing.T) {
	args := Args{}
	_, err := args.requireInt("line")
	require.Error(t, err)
	assert.Equal(t, ValidationError{Param: "line"}, err)
}

func TestOptionalIntFallsBackWhenMissing(t *testing.T) {
	args := Args{}
	assert.Equal(t, 5, args.optionalInt("endLine", 5))
}

func TestOptionalIntUsesProvidedValue(t *testing.T) {
	args := Args{"endLine": float64(9)}
	assert.Equal(t, 9, args.optionalInt("endLine", 5))
}
