package filewalker

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte{0}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"b.binu8",
		"a/c.binu8",
		"a/__global.binu8",
		"__global.binu8",
		"notes.txt",
		"a/deep/d.BINU8",
		"a/deep/e.binu8",
		"a/deep/f.binu8.bak",
	} {
		touch(t, root, rel)
	}

	entries, err := NewWalker(DefaultExt, DefaultExclude).Walk(root)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	want := []string{"a/c.binu8", "a/deep/e.binu8", "b.binu8"}
	if len(entries) != len(want) {
		t.Fatalf("want %v got %+v", want, entries)
	}
	for i, rel := range want {
		if entries[i].RelPath != rel {
			t.Fatalf("entry %d: want %s got %s", i, rel, entries[i].RelPath)
		}
		if !filepath.IsAbs(entries[i].Path) {
			t.Fatalf("path not absolute: %s", entries[i].Path)
		}
	}
}

func TestWalkExtensionWithoutDot(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x.dat")
	touch(t, root, "y.binu8")

	entries, err := NewWalker("dat").Walk(root)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(entries) != 1 || entries[0].RelPath != "x.dat" {
		t.Fatalf("unexpected %+v", entries)
	}
}

func TestWalkNotDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.binu8")
	if _, err := NewWalker("").Walk(filepath.Join(root, "file.binu8")); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}
