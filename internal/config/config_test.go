package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, c.TopN)
	assert.Equal(t, 20, c.SampleRows)
	assert.Equal(t, "", c.DecimalSeparator)
	got, err := c.Get("decimal_separator")
	require.NoError(t, err)
	assert.Equal(t, "auto", got)
	assert.Equal(t, filepath.Join(home, DirName, "workspaces"), c.WorkspacesDir)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 5\nchart_theme: dark\n"), 0o644))
	t.Setenv("SCOLAIRE_TOP_N", "7")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.TopN)
	assert.Equal(t, "dark", c.ChartTheme)
}

func TestSetAndSave(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("top_n", "3"))
	require.NoError(t, c.Set("decimal_separator", ","))
	assert.Error(t, c.Set("top_n", "-1"))
	assert.Error(t, c.Set("decimal_separator", ";"))
	require.NoError(t, c.Set("decimal_separator", "auto"))
	assert.Equal(t, "", c.DecimalSeparator)
	require.NoError(t, c.Set("decimal_separator", ","))
	assert.Error(t, c.Set("api_key", "x"))

	require.NoError(t, Save(c, ""))
	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, again.TopN)
	got, err := again.Get("decimal_separator")
	require.NoError(t, err)
	assert.Equal(t, ",", got)
	for _, k := range Keys() {
		_, err := again.Get(k)
		assert.NoError(t, err, k)
	}
}
