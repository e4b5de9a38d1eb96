package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
memory:
  max_documents: 25
  hybrid_search: true
  hybrid_alpha: 0.6
embedding:
  provider: ollama
  ollama:
    base_url: http://localhost:11434
    model: nomic-embed-text
reasoning:
  provider: openai
  openai:
    quick_model: gpt-4o-mini
    deep_model: o4-mini
storage:
  journal_path: /tmp/journal.db
  decisions:
    driver: sqlite3
    dsn: /tmp/decisions.db
logging:
  level: debug
  format: json
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Memory.MaxDocuments)
	assert.True(t, cfg.Memory.HybridSearch)
	assert.Equal(t, 0.6, cfg.Memory.HybridAlpha)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "sqlite3", cfg.Storage.Decisions.Driver)

	// Defaults fill the gaps the file left.
	assert.Equal(t, 2, cfg.Memory.MatchesPerQuery)
	assert.Equal(t, 30, cfg.Dataflows.TimeoutSeconds)
	assert.Equal(t, 1, cfg.Debate.InvestRounds)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal.db", cfg.Storage.JournalPath)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative max documents", "memory:\n  max_documents: -1\n"},
		{"alpha out of range", "memory:\n  hybrid_alpha: 1.5\n"},
		{"unknown embedding provider", "embedding:\n  provider: word2vec\n"},
		{"unknown reasoning provider", "reasoning:\n  provider: markov\n"},
		{"decisions driver without dsn", "storage:\n  decisions:\n    driver: sqlite3\n"},
		{"unknown decisions driver", "storage:\n  decisions:\n    driver: oracle\n    dsn: x\n"},
		{"malformed yaml", "memory: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FMP_API_KEY", "fmp-test")
	t.Setenv("TRADINGAGENTS_JOURNAL_PATH", "/var/lib/ta/journal.db")

	cfg, err := LoadFromBytes([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Reasoning.OpenAI.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedding.OpenAI.APIKey)
	assert.Equal(t, "fmp-test", cfg.Dataflows.FMPAPIKey)
	assert.Equal(t, "/var/lib/ta/journal.db", cfg.Storage.JournalPath)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, "mock", cfg.Reasoning.Provider)
	assert.Equal(t, 2, cfg.Memory.MatchesPerQuery)
}
