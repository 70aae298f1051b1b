package cloudy

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingParser parses like the interpreter and records how often it ran
type countingParser struct {
	calls int
}

func (p *countingParser) parse(name, source string) (Node, *Error) {
	p.calls++
	tokens, err := NewLexer(name, source).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

func quietLogger() *Logger {
	return NewLogger(false, io.Discard, io.Discard)
}

func TestScriptCacheHit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cdy")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	cache := NewScriptCache(time.Minute, quietLogger())
	p := &countingParser{}

	first, err := cache.Program(path, p.parse)
	require.NoError(t, err)
	second, err := cache.Program(path, p.parse)
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Same(t, first.(*Block), second.(*Block))
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestScriptCacheReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cdy")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	cache := NewScriptCache(time.Minute, quietLogger())
	p := &countingParser{}

	_, err := cache.Program(path, p.parse)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("x = 1\ny = 2"), 0644))
	program, err := cache.Program(path, p.parse)
	require.NoError(t, err)

	assert.Equal(t, 2, p.calls)
	assert.Len(t, program.(*Block).Statements, 2)
}

func TestScriptCacheDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cdy")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0644))

	cache := NewScriptCache(0, quietLogger())
	p := &countingParser{}
	for i := 0; i < 3; i++ {
		_, err := cache.Program(path, p.parse)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, 0, cache.Len())
	cache.Clear()
}

func TestScriptCacheErrors(t *testing.T) {
	dir := t.TempDir()
	cache := NewScriptCache(time.Minute, quietLogger())
	p := &countingParser{}

	_, err := cache.Program(filepath.Join(dir, "missing.cdy"), p.parse)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.cdy")
	assert.Zero(t, p.calls)

	bad := filepath.Join(dir, "bad.cdy")
	require.NoError(t, os.WriteFile(bad, []byte("(1"), 0644))
	_, err = cache.Program(bad, p.parse)
	var langErr *Error
	require.True(t, errors.As(err, &langErr))
	assert.Equal(t, InvalidSyntaxError, langErr.Kind)
	assert.Equal(t, 0, cache.Len(), "failed parses are not cached")
}
