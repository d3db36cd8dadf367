package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"droidfolio/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l, err := NewWithConfig(Config{Output: buf, Level: level})
	require.NoError(t, err)
	return l, buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, WARN)

	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: shown 1")
}

func TestFieldsAreSortedAndInherited(t *testing.T) {
	l, buf := newBufferLogger(t, DEBUG)

	child := l.WithField("zeta", 1).WithFields(map[string]any{"alpha": "a"})
	child.WithError(errors.New("boom")).Debug("msg")
	l.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "| alpha=a | error=boom | zeta=1")
	assert.NotContains(t, lines[1], "zeta")
}

func TestPercentInArgumentIsNotExpanded(t *testing.T) {
	l, buf := newBufferLogger(t, INFO)
	l.Info("%s", "100% done")
	assert.Contains(t, buf.String(), "INFO: 100% done")
}

func TestWithSessionAddsField(t *testing.T) {
	l, buf := newBufferLogger(t, INFO)
	l.WithSession("abc").Info("resolved")
	assert.Contains(t, buf.String(), "| session=abc")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestFileLoggerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")
	l, err := NewWithConfig(DefaultConfig(path))
	require.NoError(t, err)
	defer l.Close()

	l.Info("to file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestLogAppError(t *testing.T) {
	l, buf := newBufferLogger(t, DEBUG)
	prev := GetDefault()
	SetDefault(l)
	defer SetDefault(prev)

	LogAppError(apperrors.NewInvalidRole("OWNER"), WARN, map[string]any{"session": "s1", "error_code": "shadowed"})
	LogAppError(errors.New("plain"), ERROR, map[string]any{"key": "v"})

	out := buf.String()
	assert.Contains(t, out, "WARN: Unknown role")
	assert.Contains(t, out, "error_code=INVALID_ROLE")
	assert.Contains(t, out, "extra_error_code=shadowed")
	assert.Contains(t, out, "detail_role=OWNER")
	assert.Contains(t, out, "session=s1")
	assert.Contains(t, out, "ERROR: Unstructured error occurred")
	assert.Contains(t, out, "key=v")
}
