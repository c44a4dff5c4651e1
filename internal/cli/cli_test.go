package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/cli"
	"github.com/rshade/storekit/internal/cli/pagination"
	"github.com/rshade/storekit/internal/config"
)

type listOutput struct {
	Items      []catalog.Product `json:"items"      yaml:"items"`
	Pagination pagination.Meta   `json:"pagination" yaml:"pagination"`
}

// isolate points the home directory at a temp dir and runs from an empty
// working directory so no real config, overlay or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	t.Chdir(t.TempDir())
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestList_Table(t *testing.T) {
	isolate(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SKU")
	assert.Contains(t, out, "Trail Runner")
	assert.Contains(t, out, "Page 1 of 2 (14 products)")
}

func TestList_JSONSortedPage(t *testing.T) {
	isolate(t)

	out, err := execute(t, "list", "--page-size", "5", "--sort", "price:desc", "--output", "json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 5)
	assert.Equal(t, "Alpine Boot", got.Items[0].Name)
	assert.Equal(t, pagination.Meta{
		CurrentPage: 1,
		PageSize:    5,
		TotalPages:  3,
		TotalItems:  14,
		HasNext:     true,
		Sort:        "price:desc",
	}, got.Pagination)
}

func TestList_LastPageAndSearch(t *testing.T) {
	isolate(t)

	out, err := execute(t, "list", "--search", "trail", "--sort", "name", "-o", "json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Trail Runner", got.Items[0].Name)
	assert.Equal(t, "Trail Shorts", got.Items[1].Name)
	assert.False(t, got.Pagination.HasNext)
}

func TestList_AllPagesYAML(t *testing.T) {
	isolate(t)

	out, err := execute(t, "list", "--all", "--page-size", "4", "--sort", "sku", "--output", "yaml")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 14)
	assert.Equal(t, "ACC-BELT-03", got.Items[0].SKU)
	assert.Equal(t, "TOP-TEE-01", got.Items[13].SKU)
	assert.Equal(t, 1, got.Pagination.TotalPages)
}

func TestList_InvalidFlags(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown sort field", []string{"list", "--sort", "colour"}, pagination.ErrInvalidSortField},
		{"bad sort order", []string{"list", "--sort", "price:up"}, pagination.ErrInvalidSortOrder},
		{"zero page", []string{"list", "--page", "0"}, pagination.ErrInvalidPage},
		{"all with page", []string{"list", "--all", "--page", "2"}, pagination.ErrAllWithPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := execute(t, "list", "--output", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestList_PagePastTheEnd(t *testing.T) {
	isolate(t)

	_, err := execute(t, "list", "--page", "3")
	require.ErrorIs(t, err, pagination.ErrInvalidPage)
	assert.ErrorContains(t, err, "last page (2)")

	out, err := execute(t, "list", "--search", "no-such-product", "-o", "json")
	require.NoError(t, err)
	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.Items)
	assert.Equal(t, 1, got.Pagination.TotalPages)
}

func TestList_RetriesTransientFailures(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
retry:
  max_attempts: 3
  initial_delay: 1ms
source:
  fail_every: 2
`)
	out, err := execute(t, "--config", path, "list", "-o", "json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Items, 10)
}

func TestList_GivesUpAfterMaxAttempts(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
retry:
  max_attempts: 1
source:
  fail_every: 2
`)
	_, err := execute(t, "--config", path, "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
	assert.ErrorContains(t, err, "fetching products")
}

func TestList_FileSourceAndCache(t *testing.T) {
	home := isolate(t)
	cacheDir := filepath.Join(home, "cache")
	t.Setenv(config.EnvCacheEnabled, "true")
	t.Setenv(config.EnvCacheDir, cacheDir)

	doc := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"data":{"products":{"items":[
		{"id":"1","sku":"A-1","name":"Anvil","category":"Tools","price":10,"stock":1,"rating":5},
		{"id":"2","sku":"B-2","name":"Bucket","category":"Tools","price":4,"stock":2,"rating":4}
	]}}}`), 0o600))

	out, err := execute(t, "--source", doc, "list", "--sort", "price", "-o", "json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Bucket", got.Items[0].Name)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "the page was cached")

	stale := filepath.Join(cacheDir, "stale.json")
	require.NoError(t, os.WriteFile(stale,
		[]byte(`{"key":"stale","data":{},"created_at":"2020-01-01T00:00:00Z","expires_at":"2020-01-02T00:00:00Z"}`), 0o600))

	// A second run is served from the cache even after the document breaks.
	require.NoError(t, os.WriteFile(doc, []byte(`{"data":{"products":{"items":[]}}}`), 0o600))
	out, err = execute(t, "--source", doc, "list", "--sort", "price", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Items, 2)
	assert.NoFileExists(t, stale, "expired entries are pruned when the backend opens")

	out, err = execute(t, "config", "validate", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 1 (")
}

func TestList_DocumentErrors(t *testing.T) {
	isolate(t)

	doc := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"errors":[{"message":"Product service is down","extensions":{"code":"BAD_REQUEST","statusCode":400}}]}`), 0o600))

	_, err := execute(t, "--source", doc, "list")
	require.Error(t, err)
	assert.ErrorContains(t, err, "Product service is down")
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	isolate(t)

	_, err := execute(t, "browse")
	assert.ErrorIs(t, err, cli.ErrNotTerminal)
}

func TestRoot_InvalidLogLevelFlag(t *testing.T) {
	isolate(t)

	_, err := execute(t, "--log-level", "chatty", "list")
	assert.ErrorContains(t, err, "--log-level")
}
