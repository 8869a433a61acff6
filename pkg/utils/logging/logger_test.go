package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleAtInfoFileAtDebug(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, cleanup, err := New("test", Options{Dir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("slot scored")
	logger.Info("version committed")
	cleanup()

	assert.NotContains(t, console.String(), "slot scored")
	assert.Contains(t, console.String(), "version committed")

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "slot scored", first["msg"])
	assert.Equal(t, "debug", first["level"])
	assert.Equal(t, "test", first["env"])
	assert.Contains(t, first, "timestamp")
}

func TestNew_VerboseConsole(t *testing.T) {
	var console bytes.Buffer

	logger, cleanup, err := New("test", Options{Dir: t.TempDir(), Console: &console, Verbose: true})
	require.NoError(t, err)
	logger.Debug("slot scored")
	cleanup()

	assert.Contains(t, console.String(), "slot scored")
}
