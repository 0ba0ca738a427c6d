package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Endpoint string   `json:"endpoint"`
	PerPage  int      `json:"per_page"`
	To       []string `json:"to"`
	Nested   struct {
		Width int `json:"width"`
	} `json:"nested"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		endpoint: "https://example.com/posts",
		per_page: 100,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ per_page: 20 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/posts", cfg.Endpoint)
	require.Equal(t, 20, cfg.PerPage)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{Endpoint: "https://default", PerPage: 100, To: []string{"a@b.c"}}
	defaults.Nested.Width = 40

	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ per_page: 5, nested: { width: 12 } }`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "https://default", cfg.Endpoint)
	require.Equal(t, 5, cfg.PerPage)
	require.Equal(t, 12, cfg.Nested.Width)
	require.Equal(t, []string{"a@b.c"}, cfg.To)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ per_page: `)
	_, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), testConfig{})
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestSplitExt(t *testing.T) {
	prefix, ext := splitExt("telemetry.json5")
	require.Equal(t, "telemetry", prefix)
	require.Equal(t, "json5", ext)
}

type limitsConfig struct {
	Rows *int `json:"rows"`
}

func TestReadConfigWithDefaultsKeepsExplicitZero(t *testing.T) {
	rows := 500
	defaults := limitsConfig{Rows: &rows}

	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, 500, *cfg.Rows)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ rows: 0 }`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, 0, *cfg.Rows)
	require.Equal(t, 500, rows)

	writeFile(t, filepath.Join(dir, "config.json5"), `{ rows: 20 }`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ rows: 0 }`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, 0, *cfg.Rows)
}

func TestReadConfigWithDefaultsChecksFileContents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ per_page: 5 }`)

	var seen testConfig
	errTooSmall := errors.New("too small")
	_, err := ReadConfigWithDefaults(
		filepath.Join(dir, "config.json5"),
		testConfig{Endpoint: "https://default", PerPage: 100},
		func(c testConfig) error {
			seen = c
			if c.PerPage < 10 {
				return errTooSmall
			}
			return nil
		},
	)
	require.ErrorIs(t, err, errTooSmall)
	require.Equal(t, testConfig{PerPage: 5}, seen)
}
