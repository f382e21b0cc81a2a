package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Headless bool   `json:"headless"`
	Pace     int    `json:"pace"`
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "app.json5"), []byte(`{
		// comments are allowed
		base_url: "https://a.example",
		pace: 10,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "app.local.json5"), []byte(`{pace: 20}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://a.example", cfg.BaseUrl)
	require.Equal(t, 20, cfg.Pace)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadWithDefaults(t *testing.T) {
	defaults := testConfig{BaseUrl: "https://default.example", Pace: 6}

	cfg, err := ReadWithDefaults(filepath.Join(t.TempDir(), "missing.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")
	err = os.WriteFile(path, []byte(`{headless: true, pace: 30}`), 0600)
	require.NoError(t, err)

	cfg, err = ReadWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://default.example",
		Headless: true,
		Pace:     30,
	}, cfg)
}
