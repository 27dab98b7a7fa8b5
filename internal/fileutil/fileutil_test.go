package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileMode(src, dst, 0o755); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	// Check executable bits are set (umask may clear some bits).
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable bits, got %o", info.Mode().Perm())
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.bin")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "uploader", "Some Album (2009)")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(nested, "track.flac")
	if err := os.WriteFile(want, []byte("flac"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindFile(dir, "track.flac")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("FindFile = %q, want %q", got, want)
	}
}

func TestFindFileNotFound(t *testing.T) {
	got, err := FindFile(t.TempDir(), "missing.flac")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}

func TestFindFileEmptyBasename(t *testing.T) {
	if _, err := FindFile(t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty basename")
	}
}

func TestRemoveWithEmptyParent(t *testing.T) {
	dir := t.TempDir()
	parent := filepath.Join(dir, "uploader")
	if err := os.MkdirAll(parent, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(parent, "track.flac")
	if err := os.WriteFile(path, []byte("flac"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveWithEmptyParent(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(parent); !os.IsNotExist(err) {
		t.Fatalf("expected empty parent removed, stat err = %v", err)
	}
}

func TestRemoveWithEmptyParentKeepsNonEmpty(t *testing.T) {
	dir := t.TempDir()
	parent := filepath.Join(dir, "uploader")
	if err := os.MkdirAll(parent, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(parent, "track.flac")
	sibling := filepath.Join(parent, "cover.jpg")
	for _, p := range []string{path, sibling} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := RemoveWithEmptyParent(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(parent); err != nil {
		t.Fatalf("parent with sibling should remain: %v", err)
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Fatalf("sibling should remain: %v", err)
	}
}
