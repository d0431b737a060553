package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shindo-go/eblobidx/pkg/fs"
)

func TestAtomicWriteFile_ReplacesExistingContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	require := func(cond bool, format string, args ...any) {
		if !cond {
			t.Fatalf(format, args...)
		}
	}

	require(os.WriteFile(path, []byte("stale"), 0o644) == nil, "seed file")

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults(path, strings.NewReader("hello, world"))
	if err != nil {
		t.Fatalf("WriteWithDefaults: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "hello, world" {
		t.Fatalf("content=%q, want %q", string(got), "hello, world")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected exactly the final file to remain, got %d entries", len(entries))
	}
}

func TestAtomicWriteFile_RejectsZeroPerm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.Write(filepath.Join(dir, "x.txt"), strings.NewReader("x"), fs.AtomicWriteOptions{})
	if err == nil {
		t.Fatal("expected an error for a zero Perm")
	}
}
