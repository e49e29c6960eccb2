package publisher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWritePageOverwrites(t *testing.T) {
	pub := New(t.TempDir())
	path, err := pub.WritePage("best-running-shoes", []byte("v1"))
	if err != nil {
		t.Fatalf("write page failed: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "posts" {
		t.Fatalf("unexpected page dir: %s", path)
	}
	if _, err := pub.WritePage("best-running-shoes", []byte("v2")); err != nil {
		t.Fatalf("overwrite page failed: %v", err)
	}
	got, err := pub.ReadPage("best-running-shoes")
	if err != nil {
		t.Fatalf("read page failed: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("expected overwritten content, got %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestPagePathRejectsTraversal(t *testing.T) {
	pub := New(t.TempDir())
	for _, slug := range []string{"../etc/passwd", "", "UPPER", "a/b", "-lead"} {
		if _, err := pub.PagePath(slug); !errors.Is(err, ErrInvalidSlug) {
			t.Fatalf("slug %q should be rejected, got %v", slug, err)
		}
	}
}

func TestReadMissingPage(t *testing.T) {
	pub := New(t.TempDir())
	if _, err := pub.ReadPage("missing"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	if _, err := pub.ReadIndex(); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound for index, got %v", err)
	}
	if _, err := pub.WriteIndex([]byte("<html></html>")); err != nil {
		t.Fatalf("write index failed: %v", err)
	}
	if raw, err := pub.ReadIndex(); err != nil || string(raw) != "<html></html>" {
		t.Fatalf("unexpected index: %q err=%v", raw, err)
	}
}
