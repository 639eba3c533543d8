package git

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChangeType is how a file changed in the index.
type ChangeType int

const (
	ChangeTypeModified ChangeType = iota
	ChangeTypeAdded
	ChangeTypeDeleted
	ChangeTypeRenamed
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdded:
		return "added"
	case ChangeTypeDeleted:
		return "deleted"
	case ChangeTypeRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// FileDiff is the section of a unified diff belonging to one file.
type FileDiff struct {
	Path       string
	OldPath    string
	ChangeType ChangeType
	Binary     bool
	Content    string
}

// FileStat is one line of `git diff --numstat`.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

// DiffStats aggregates FileStats.
type DiffStats struct {
	Files          []FileStat
	TotalAdditions int
	TotalDeletions int
}

// NewDiffStats totals files.
func NewDiffStats(files []FileStat) *DiffStats {
	s := &DiffStats{Files: files}
	for _, f := range files {
		s.TotalAdditions += f.Additions
		s.TotalDeletions += f.Deletions
	}
	return s
}

// Summary is a one-line description such as "3 files, +10/-2".
func (s *DiffStats) Summary() string {
	noun := "files"
	if len(s.Files) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s, +%d/-%d", len(s.Files), noun, s.TotalAdditions, s.TotalDeletions)
}

// ParseNumstat parses `git diff --numstat` output. Binary files report "-"
// for both counts.
func ParseNumstat(output string) []FileStat {
	var stats []FileStat
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 3)
		if len(parts) < 3 {
			continue
		}

		stat := FileStat{Path: renamedPath(parts[2])}
		if parts[0] == "-" && parts[1] == "-" {
			stat.Binary = true
		} else {
			stat.Additions, _ = strconv.Atoi(parts[0])
			stat.Deletions, _ = strconv.Atoi(parts[1])
		}
		stats = append(stats, stat)
	}
	return stats
}

var braceRename = regexp.MustCompile(`\{([^}]*) => ([^}]*)\}`)

// renamedPath resolves numstat rename notation ("a => b", "dir/{a => b}") to the new path.
func renamedPath(p string) string {
	if !strings.Contains(p, " => ") {
		return p
	}
	if !strings.Contains(p, "{") {
		_, after, _ := strings.Cut(p, " => ")
		return strings.TrimSpace(after)
	}
	return strings.ReplaceAll(braceRename.ReplaceAllString(p, "$2"), "//", "/")
}

const fileHeader = "diff --git "

// SplitFileDiffs cuts a unified diff into per-file sections. Text before the
// first file header is dropped; concatenating the Content fields gives back
// the rest of the diff unchanged.
func SplitFileDiffs(diff string) []FileDiff {
	var files []FileDiff
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			files = append(files, parseFileDiff(current.String()))
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, fileHeader) {
			flush()
		} else if current.Len() == 0 {
			continue
		}
		current.WriteString(line)
	}
	flush()
	return files
}

func parseFileDiff(section string) FileDiff {
	fd := FileDiff{Content: section}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, fileHeader):
			fd.Path = headerPath(line)
		case strings.HasPrefix(line, "new file mode"):
			fd.ChangeType = ChangeTypeAdded
		case strings.HasPrefix(line, "deleted file mode"):
			fd.ChangeType = ChangeTypeDeleted
		case strings.HasPrefix(line, "rename from "):
			fd.OldPath = strings.TrimPrefix(line, "rename from ")
			fd.ChangeType = ChangeTypeRenamed
		case strings.HasPrefix(line, "rename to "):
			fd.Path = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "Binary files "):
			fd.Binary = true
		case strings.HasPrefix(line, "@@"):
			return fd
		}
	}
	return fd
}

// headerPath extracts the b/ path from "diff --git a/x b/x".
func headerPath(line string) string {
	rest := strings.TrimPrefix(line, fileHeader)
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+3:]
	}
	return strings.TrimPrefix(rest, "a/")
}
