package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/go-prefix-index/config"
)

func TestSplitSources(t *testing.T) {
	assert.Equal(t, []string{"/usr/share/ri/system", "/home/me/.rdoc"}, splitSources("/usr/share/ri/system, /home/me/.rdoc"))
	assert.Equal(t, []string{"a"}, splitSources(",a,,"))
	assert.Empty(t, splitSources(""))
}

func TestBuildSettings(t *testing.T) {
	t.Run("flags reach the settings", func(t *testing.T) {
		settings := buildSettings("/tmp/ri", "ft.txt", "idx.bin", "/var/log/keys", 32, 500)

		assert.Equal(t, "cli", settings.Name)
		assert.Equal(t, 32, settings.MaxPrefix)
		assert.Equal(t, 500, settings.BatchSize)
		assert.Equal(t, filepath.Join("/tmp/ri", "ft.txt"), settings.FulltextPath())
		assert.Equal(t, filepath.Join("/tmp/ri", "idx.bin"), settings.IndexPath())
		assert.Equal(t, "/var/log/keys", settings.SuffixesPath())
		assert.Empty(t, settings.Validate())
	})

	t.Run("flag defaults", func(t *testing.T) {
		settings := buildSettings(".", config.DefaultFulltextFile, config.DefaultIndexFile, config.DefaultSuffixesFile,
			config.DefaultMaxPrefix, config.DefaultBatchSize)

		assert.Equal(t, config.DefaultMaxPrefix, settings.MaxPrefix)
		assert.Equal(t, config.DefaultBatchSize, settings.BatchSize)
		assert.Equal(t, config.DefaultProgressEvery, settings.ProgressEvery)
		assert.Equal(t, config.DefaultIndexFile, settings.IndexPath())
	})

	t.Run("invalid values are reported", func(t *testing.T) {
		settings := buildSettings(".", "FULLTEXT", "FULLTEXT", "suffixes", -1, -5)
		assert.Len(t, settings.Validate(), 3)
	})
}
