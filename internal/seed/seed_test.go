package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Bundled(t *testing.T) {
	snap, err := Load("")
	require.NoError(t, err)

	assert.Contains(t, snap.Departments, "54")
	assert.NotEmpty(t, snap.Plugs["54"])
	assert.Empty(t, snap.Plugs["55"])
	require.NotNil(t, snap.Admins)
	assert.NotEmpty(t, snap.Admins.Whitelist)
	require.NotNil(t, snap.Reviews)
	assert.NotNil(t, snap.AdminLogs)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"departments":{"2A":{"name":"Corse-du-Sud","emoji":"🏝️"}}}`), 0o644))

	snap, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, snap.Departments, 1)
	assert.NotNil(t, snap.Plugs)
	assert.Empty(t, snap.Admins.Whitelist)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"plugs":`), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
