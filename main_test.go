package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
export FIREBASE_PROJECT_ID="click-war-test"
FIREBASE_APP_ID='1:2:web:3'
CLICKWAR_TEAM=from-file
`), 0o600))
	t.Setenv("FIREBASE_PROJECT_ID", "")
	os.Unsetenv("FIREBASE_PROJECT_ID")
	t.Setenv("FIREBASE_APP_ID", "")
	os.Unsetenv("FIREBASE_APP_ID")
	t.Setenv("CLICKWAR_TEAM", "from-env")

	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "click-war-test", os.Getenv("FIREBASE_PROJECT_ID"))
	assert.Equal(t, "1:2:web:3", os.Getenv("FIREBASE_APP_ID"))
	assert.Equal(t, "from-env", os.Getenv("CLICKWAR_TEAM"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope")))
}

func TestLoadDotEnv_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOEQUALS\n"), 0o600))

	require.Error(t, loadDotEnv(path))
}

func TestEnsureDefaultCredentials(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "service-account.json")
	require.NoError(t, os.WriteFile(key, []byte("{}"), 0o600))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	ensureDefaultCredentials(key)
	assert.Equal(t, key, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/already/set.json")
	ensureDefaultCredentials(key)
	assert.Equal(t, "/already/set.json", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}

func TestEnsureDefaultCredentials_MissingFile(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	ensureDefaultCredentials(filepath.Join(t.TempDir(), "absent.json"))

	assert.Empty(t, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}
