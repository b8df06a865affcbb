package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Vectorizer.MaxFeatures)
	assert.Equal(t, "english", cfg.Vectorizer.StopWords)
	assert.Equal(t, 10, cfg.Query.DefaultK)
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  path: movies.csv\n  keep_untagged: true\nvectorizer:\n  max_features: 100\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "movies.csv", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.KeepUntagged)
	assert.Equal(t, 100, cfg.Vectorizer.MaxFeatures)
	assert.Equal(t, "tfidf", cfg.Vectorizer.Type)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvCatalog, "/data/other.csv")
	t.Setenv(EnvAddr, ":9090")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/data/other.csv", cfg.Catalog.Path)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown vectorizer", "vectorizer:\n  type: word2vec\n"},
		{"unknown stop words", "vectorizer:\n  stop_words: klingon\n"},
		{"default k above max", "query:\n  default_k: 50\n"},
		{"zero min k", "query:\n  min_k: 0\n  default_k: 1\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"malformed yaml", "catalog: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Query.DefaultK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "recommender", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, defaultConfig(), cfg)
}
