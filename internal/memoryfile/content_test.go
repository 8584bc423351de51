package memoryfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHeaderAndEntriesEmpty(t *testing.T) {
	header, entries := splitHeaderAndEntries("")
	assert.Equal(t, "", header)
	assert.Nil(t, entries)
}

func TestSplitHeaderAndEntriesSkipsBlankLines(t *testing.T) {
	header, entries := splitHeaderAndEntries("# Global Memory\n\n- fact one\n\n- fact two\n")
	assert.Equal(t, "# Global Memory", header)
	assert.Equal(t, []string{"- fact one", "- fact two"}, entries)
}

func TestRenderEntriesRoundTrips(t *testing.T) {
	content := renderEntries("# Global Memory", []string{"- a", "- b"})
	header, entries := splitHeaderAndEntries(content)
	assert.Equal(t, "# Global Memory", header)
	assert.Equal(t, []string{"- a", "- b"}, entries)
}

func TestTruncateToSizeDropsOldestFirst(t *testing.T) {
	entries := []string{"- one", "- two", "- three"}
	full := renderEntries("# H", entries)
	max := len(full) - 1

	out := truncateToSize("# H", entries, max)

	assert.True(t, len(out) <= max || len(out) == len(renderEntries("# H", nil)))
	assert.False(t, strings.Contains(out, "- one"))
	assert.True(t, strings.Contains(out, "# H"))
}

func TestTruncateToSizeAlwaysKeepsHeader(t *testing.T) {
	entries := []string{"- one"}
	out := truncateToSize("# H", entries, 1)
	assert.True(t, strings.HasPrefix(out, "# H"))
}

func TestAppendEntryCreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.md")

	require.NoError(t, appendEntry(path, "# Global Memory", "- user likes tabs"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Global Memory"))
	assert.Contains(t, string(data), "- user likes tabs")
}

func TestAppendEntryAppendsToExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.md")

	require.NoError(t, appendEntry(path, "# Global Memory", "- first"))
	require.NoError(t, appendEntry(path, "# Global Memory", "- second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- first")
	assert.Contains(t, string(data), "- second")
}

func TestAppendEntryTruncatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.md")

	long := strings.Repeat("x", 2000)
	for i := 0; i < 400; i++ {
		require.NoError(t, appendEntry(path, "# Global Memory", "- "+long))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) <= MaxSize)
	assert.True(t, strings.HasPrefix(string(data), "# Global Memory"))
}

func TestReadFileMissingReturnsEmpty(t *testing.T) {
	content, err := readFile(filepath.Join(t.TempDir(), "missing.md"))
	require.NoError(t, err)
	assert.Equal(t, "", content)
}
