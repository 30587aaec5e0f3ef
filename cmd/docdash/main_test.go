package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docdash/internal/config"
	"github.com/custodia-labs/docdash/internal/core/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("revenue,cost\n10,1\n20,2\n30,3\n"), 0o600))

	out, err := execute(t, "ask", path, "count", "the", "rows")
	require.NoError(t, err)

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "The total number of records is 3", resp.Text)
	assert.Nil(t, resp.Visualization)
}

func TestAskCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "ask", filepath.Join(t.TempDir(), "nope.csv"), "count")
	assert.Error(t, err)
}

func TestAskCommand_NeedsQuestion(t *testing.T) {
	_, err := execute(t, "ask", "only-a-file.csv")
	assert.Error(t, err)
}

func TestAskCommand_HelpListsAnalyses(t *testing.T) {
	t.Cleanup(func() { _ = askCmd.Flags().Set("help", "false") })

	out, err := execute(t, "ask", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Supported analyses: average, bar_chart, count, line_chart, scatter_chart")
	assert.NotContains(t, out, "fallback")
}

func TestConfigCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")

	out, err := execute(t, "config")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.ModeAll, cfg.RunMode)
}

func TestConfigCommand_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_FORMAT", "xml")

	_, err := execute(t, "config")
	assert.Error(t, err)
}
