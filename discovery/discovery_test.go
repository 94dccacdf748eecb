package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<html></html>"), 0644))
}

func TestListFiltersByPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "SuiteSmoke.html")
	writeFile(t, dir, "SuiteLogin.html")
	writeFile(t, dir, "TestOrphan.html")
	writeFile(t, dir, "readme.txt")

	suites, err := New(zap.NewNop()).List(dir)
	require.NoError(t, err)
	require.Len(t, suites, 2)

	// os.ReadDir returns entries sorted by name
	assert.Equal(t, "SuiteLogin.html", suites[0].Name)
	assert.Equal(t, "SuiteSmoke.html", suites[1].Name)
	assert.Equal(t, filepath.Join(dir, "SuiteLogin.html"), suites[0].Path)
}

func TestListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "SuiteNested"), 0755))
	writeFile(t, dir, "SuiteReal.html")

	suites, err := New(nil).List(dir)
	require.NoError(t, err)
	require.Len(t, suites, 1)
	assert.Equal(t, "SuiteReal.html", suites[0].Name)
}

func TestListEmptyDirectory(t *testing.T) {
	suites, err := New(zap.NewNop()).List(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, suites)
}

func TestListMissingDirectory(t *testing.T) {
	_, err := New(zap.NewNop()).List(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing suite directory")
}
