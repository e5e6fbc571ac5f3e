package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"metasearch/websearch"
	"metasearch/websearch/types"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, searchLang, xlsxPath, outputJSON = "", "", "", false

	var out, errOut bytes.Buffer
	root := GetRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	defer root.SetArgs(nil)

	err := root.Execute()
	return out.String(), err
}

func offlineEnv(t *testing.T) {
	t.Setenv("SERVICE_DATABASE_PATH", ":memory:")
	t.Setenv("WEB_SEARCH_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "ERROR")
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range GetRootCommand().Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names[CmdServe])
	assert.True(t, names[CmdSearch])
	assert.True(t, names[CmdConfigCheck])
}

func TestConfigCheck_MasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8081"
web_search:
  providers:
    - name: bing
      enabled: true
      api_key: super-secret-key
`), 0o600))

	out, err := runCommand(t, CmdConfigCheck, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# configuration is valid")
	assert.Contains(t, out, `port: "8081"`)
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "super-secret-key")
}

func TestConfigCheck_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: LOUD\n"), 0o600))

	_, err := runCommand(t, CmdConfigCheck, "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSearch_JSONOutput(t *testing.T) {
	offlineEnv(t)

	out, err := runCommand(t, CmdSearch, "--json", "--lang", "ru", "golang", "generics")
	require.NoError(t, err)

	var result websearch.AggregatedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "golang generics", result.Query)
	assert.Equal(t, "ru", result.Language)
	assert.Equal(t, 0, result.Summary.Attempted)
}

func TestSearch_SavesXLSX(t *testing.T) {
	offlineEnv(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := runCommand(t, CmdSearch, "--xlsx", path, "golang")
	require.NoError(t, err)
	assert.Contains(t, out, "Report saved to")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")
}

func TestSearch_InvalidQuery(t *testing.T) {
	offlineEnv(t)

	_, err := runCommand(t, CmdSearch, "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, websearch.ErrInvalidInput)

	_, err = runCommand(t, CmdSearch)
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	result := &websearch.AggregatedResult{
		Query:         "golang",
		Language:      "en",
		ProviderOrder: []string{"bing", "duckduckgo"},
		PerProvider: map[string]*websearch.ProviderOutcome{
			"bing": {
				ProviderID: "bing",
				Status:     types.StatusError,
				Error:      &types.ErrorRecord{Kind: types.KindTimeout, UserMessage: "Bing не ответил вовремя."},
				DirectURL:  "https://www.bing.com/search?q=golang",
			},
			"duckduckgo": {
				ProviderID: "duckduckgo",
				Status:     types.StatusSuccess,
				FromCache:  true,
				Data: &types.ProviderResult{
					ItemCount: 1,
					Items:     []types.SearchItem{{Title: "The Go Programming Language", URL: "https://go.dev"}},
				},
			},
		},
		Summary: websearch.Summary{Attempted: 2, Succeeded: 1, Failed: 1, TotalItems: 1},
	}

	var buf bytes.Buffer
	printResult(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "2 attempted, 1 succeeded, 1 failed, 1 items")
	assert.Contains(t, out, "[bing] error (timeout): Bing не ответил вовремя.")
	assert.Contains(t, out, "open: https://www.bing.com/search?q=golang")
	assert.Contains(t, out, "[duckduckgo] 1 items (cache)")
	assert.Contains(t, out, "1. The Go Programming Language")
}
