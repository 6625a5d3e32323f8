package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	main "github.com/Adithya-Monish-Kumar-K/docsearch/cmd/docsearch"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docsRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"intro.md":         "---\ntitle: Getting Started\ndescription: First steps\ntags: [beginner]\n---\nInstall the CLI.\n",
		"configuration.md": "---\ntitle: Configuration\n---\nEvery configuration key.\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg := config.Default()
	cfg.Docs.Root = docsRoot(t)
	cfg.Memory.Threshold = 1
	cfg.Metrics.Enabled = false

	m := main.NewMain()
	m.Config = cfg
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func TestSearchCmd(t *testing.T) {
	t.Run("prints ranked results", func(t *testing.T) {
		out, _, err := run(t, "search", "configuration")
		require.NoError(t, err)
		assert.Contains(t, out, "configuration")
		assert.Contains(t, out, "Configuration")
	})

	t.Run("tags only with flag", func(t *testing.T) {
		out, _, err := run(t, "search", "beginner")
		require.NoError(t, err)
		assert.Contains(t, out, "No documents match")

		out, _, err = run(t, "search", "--tags", "beginner")
		require.NoError(t, err)
		assert.Contains(t, out, "intro")
	})

	t.Run("fuzzy json output", func(t *testing.T) {
		out, _, err := run(t, "search", "--fuzzy", "--json", "configureation")
		require.NoError(t, err)
		var results []search.Result
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.NotEmpty(t, results)
		assert.Equal(t, "configuration", results[0].Document.ID)
	})

	t.Run("rejects blank query", func(t *testing.T) {
		_, _, err := run(t, "search", "  ")
		assert.Error(t, err)
	})
}

func TestShowCmd(t *testing.T) {
	out, _, err := run(t, "show", "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Getting Started\n\nFirst steps\n\nInstall the CLI.\n", out)

	_, _, err = run(t, "show", "missing")
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestStatsCmd_NoSnapshot(t *testing.T) {
	out, _, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No analytics snapshot")
}

func TestAnalyticsCmd_RequiresBrokers(t *testing.T) {
	_, _, err := run(t, "analytics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka brokers")
}

func TestRun_NoCommand(t *testing.T) {
	_, _, err := run(t)
	assert.Error(t, err)
}
