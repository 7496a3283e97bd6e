package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLUnderStateHome(t *testing.T) {
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	require.Equal(t, filepath.Join(stateHome, "murmur", "log.jsonl"), rt.Path)

	rt.Logger.Info("hello", "key", "value")
	require.NoError(t, rt.Close())

	content, err := os.ReadFile(rt.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"msg":"hello"`)
	require.Contains(t, string(content), `"key":"value"`)
	require.True(t, strings.HasSuffix(string(content), "\n"))
}
