package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchamber/hive/internal/hive"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func setupHive(t *testing.T) (*hive.Store, string) {
	t.Helper()
	root := t.TempDir()
	store := hive.NewStore()
	require.NoError(t, store.EnsureRoot(root))
	return store, root
}

func TestRebuildAndSearch(t *testing.T) {
	store, root := setupHive(t)
	_, err := store.CreateFeature(root, "user auth", "")
	require.NoError(t, err)
	require.NoError(t, store.WritePlan(root, "user-auth", "# Plan\n\n### 1. Wire OAuth callbacks\n"))
	require.NoError(t, store.WriteContextFile(root, "user-auth", "notes.md", "token refresh edge case"))

	ix, err := Open(":memory:")
	require.NoError(t, err)
	defer ix.Close()

	require.NoError(t, ix.Rebuild(root, store))

	results, err := ix.Search("oauth", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user-auth", results[0].Feature)
	assert.Equal(t, KindPlan, results[0].Kind)

	results, err = ix.Search("refresh", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, KindContext, results[0].Kind)
	assert.Equal(t, "notes.md", results[0].Name)
}

func TestRebuildReplacesStaleDocs(t *testing.T) {
	store, root := setupHive(t)
	_, err := store.CreateFeature(root, "auth", "")
	require.NoError(t, err)
	require.NoError(t, store.WritePlan(root, "auth", "first draft"))

	ix, err := Open(":memory:")
	require.NoError(t, err)
	defer ix.Close()

	require.NoError(t, ix.Rebuild(root, store))
	results, err := ix.Search("draft", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, store.WritePlan(root, "auth", "second revision"))
	require.NoError(t, ix.Rebuild(root, store))

	results, err = ix.Search("draft", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "stale content must disappear after rebuild")

	results, err = ix.Search("revision", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchIndexesTaskSpecs(t *testing.T) {
	store, root := setupHive(t)
	_, err := store.CreateFeature(root, "auth", "")
	require.NoError(t, err)
	require.NoError(t, store.WritePlan(root, "auth", "### 1. Setup\n"))
	_, err = store.SyncTasks(root, "auth")
	require.NoError(t, err)
	require.NoError(t, store.WriteContextFile(root, "auth", "ignore.md", ""))

	// A spec document written by an agent.
	specPath := hive.FeaturePath(root, "auth", hive.TasksDir, "01-setup", "spec.md")
	require.NoError(t, writeFile(t, specPath, "provision the database schema"))

	ix, err := Open(":memory:")
	require.NoError(t, err)
	defer ix.Close()

	require.NoError(t, ix.Rebuild(root, store))

	results, err := ix.Search("provision", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, KindSpec, results[0].Kind)
	assert.Equal(t, "01-setup", results[0].Name)
}

func TestSearchEmptyQuery(t *testing.T) {
	ix, err := Open(":memory:")
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchQuotesUserInput(t *testing.T) {
	store, root := setupHive(t)
	_, err := store.CreateFeature(root, "auth", "")
	require.NoError(t, err)
	require.NoError(t, store.WritePlan(root, "auth", "nothing to see"))

	ix, err := Open(":memory:")
	require.NoError(t, err)
	defer ix.Close()
	require.NoError(t, ix.Rebuild(root, store))

	// FTS5 operators in user input must not break the query.
	_, err = ix.Search(`NEAR( OR "`, 10)
	assert.NoError(t, err)
}
