package memoryfile

import (
	"io"
	"os"
	"strings"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/lockfile"
)

// splitHeaderAndEntries separates a memory file's first line (its header)
// from the non-blank lines that follow. An empty file has no header.
func splitHeaderAndEntries(content string) (header string, entries []string) {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return "", nil
	}
	lines := strings.Split(content, "\n")
	header = lines[0]
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		entries = append(entries, l)
	}
	return header, entries
}

// renderEntries joins header and entries back into file content.
func renderEntries(header string, entries []string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return b.String()
}

// truncateToSize drops the oldest entries (the front of the slice) until
// the rendered content fits within max, always preserving the header.
func truncateToSize(header string, entries []string, max int) string {
	content := renderEntries(header, entries)
	for len(content) > max && len(entries) > 0 {
		entries = entries[1:]
		content = renderEntries(header, entries)
	}
	return content
}

// appendEntry appends entry as a new line under path's header, truncating
// the oldest entries first if the result would exceed MaxSize. The write is
// serialised against other processes with an exclusive flock, mirroring how
// the session store serialises markdown appends.
func appendEntry(path, defaultHeader, entry string) error {
	if err := layout.EnsureParent(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return errkind.Wrap("open memory file", err)
	}
	defer f.Close()

	if err := lockfile.FlockExclusiveBlocking(f); err != nil {
		return errkind.Wrap("lock memory file", err)
	}
	defer lockfile.FlockUnlock(f)

	raw, err := io.ReadAll(f)
	if err != nil {
		return errkind.Wrap("read memory file", err)
	}

	header, entries := splitHeaderAndEntries(string(raw))
	if header == "" {
		header = defaultHeader
	}
	entries = append(entries, strings.TrimRight(entry, "\n"))
	content := truncateToSize(header, entries, MaxSize)

	if err := f.Truncate(0); err != nil {
		return errkind.Wrap("truncate memory file", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return errkind.Wrap("seek memory file", err)
	}
	if _, err := f.WriteString(content); err != nil {
		return errkind.Wrap("write memory file", err)
	}
	return nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errkind.Wrap("read memory file", err)
	}
	return string(data), nil
}
