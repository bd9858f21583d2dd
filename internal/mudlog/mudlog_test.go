package mudlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetWritesToPerCategoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))

	Get(Bans).Info("test ban event")

	data, err := os.ReadFile(filepath.Join(dir, "log.bans"))
	require.NoError(t, err)
	require.Contains(t, string(data), "test ban event")
}

func TestGetIsStableAcrossCalls(t *testing.T) {
	require.NoError(t, Bootstrap(t.TempDir()))
	require.Same(t, Get(Commands), Get(Commands))
}
