package git

import (
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/go.sum b/go.sum
index 1111111..2222222 100644
--- a/go.sum
+++ b/go.sum
@@ -1 +1,2 @@
 a v1
+b v2
diff --git a/cmd/main.go b/cmd/main.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/cmd/main.go
@@ -0,0 +1 @@
+package main
diff --git a/old.txt b/new.txt
similarity index 100%
rename from old.txt
rename to new.txt
diff --git a/logo.png b/logo.png
deleted file mode 100644
Binary files a/logo.png and /dev/null differ
`

func TestSplitFileDiffs(t *testing.T) {
	files := SplitFileDiffs(sampleDiff)
	if len(files) != 4 {
		t.Fatalf("len = %d, want 4", len(files))
	}

	tests := []struct {
		path    string
		oldPath string
		change  ChangeType
		binary  bool
	}{
		{"go.sum", "", ChangeTypeModified, false},
		{"cmd/main.go", "", ChangeTypeAdded, false},
		{"new.txt", "old.txt", ChangeTypeRenamed, false},
		{"logo.png", "", ChangeTypeDeleted, true},
	}
	for i, tt := range tests {
		f := files[i]
		if f.Path != tt.path || f.OldPath != tt.oldPath || f.ChangeType != tt.change || f.Binary != tt.binary {
			t.Errorf("files[%d] = %+v, want path=%s old=%s change=%s binary=%v",
				i, f, tt.path, tt.oldPath, tt.change, tt.binary)
		}
	}

	var joined strings.Builder
	for _, f := range files {
		joined.WriteString(f.Content)
	}
	if joined.String() != sampleDiff {
		t.Error("concatenated sections differ from the input diff")
	}
}

func TestSplitFileDiffs_DropsPreambleAndHandlesEmpty(t *testing.T) {
	if got := SplitFileDiffs(""); len(got) != 0 {
		t.Errorf("empty diff gave %d sections", len(got))
	}
	files := SplitFileDiffs("warning: something\n" + sampleDiff)
	if len(files) != 4 || !strings.HasPrefix(files[0].Content, "diff --git a/go.sum") {
		t.Errorf("preamble not dropped: %+v", files[0])
	}
}

func TestSplitFileDiffs_IgnoresHeaderLikeContent(t *testing.T) {
	diff := "diff --git a/doc.md b/doc.md\n--- a/doc.md\n+++ b/doc.md\n@@ -1 +1 @@\n-x\n+ diff --git a/y b/y\n"
	files := SplitFileDiffs(diff)
	if len(files) != 1 {
		t.Fatalf("len = %d, want 1", len(files))
	}
}

func TestParseNumstat(t *testing.T) {
	out := "3\t1\tmain.go\n-\t-\tlogo.png\n2\t0\tdir/{old => new}/file.go\n1\t1\ta.txt => b.txt\nmalformed\n"
	stats := ParseNumstat(out)

	if len(stats) != 4 {
		t.Fatalf("len = %d, want 4", len(stats))
	}
	if stats[0] != (FileStat{Path: "main.go", Additions: 3, Deletions: 1}) {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if !stats[1].Binary || stats[1].Additions != 0 {
		t.Errorf("stats[1] = %+v, want binary", stats[1])
	}
	if stats[2].Path != "dir/new/file.go" {
		t.Errorf("brace rename = %q", stats[2].Path)
	}
	if stats[3].Path != "b.txt" {
		t.Errorf("plain rename = %q", stats[3].Path)
	}

	total := NewDiffStats(stats)
	if total.TotalAdditions != 6 || total.TotalDeletions != 2 {
		t.Errorf("totals = +%d/-%d", total.TotalAdditions, total.TotalDeletions)
	}
}

func TestDiffStatsSummary_Singular(t *testing.T) {
	s := NewDiffStats([]FileStat{{Path: "a", Additions: 1}})
	if got := s.Summary(); got != "1 file, +1/-0" {
		t.Errorf("Summary() = %q", got)
	}
}
