package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPutWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "http://files.test/files/")

	url, err := l.Put(context.Background(), "abc/resume_1.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://files.test/files/abc/resume_1.pdf" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "abc", "resume_1.pdf"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "%PDF" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestLocalPutRejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir(), "http://files.test")
	for _, key := range []string{"../x.pdf", "a/../../x.pdf", ""} {
		if _, err := l.Put(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestDocumentKey(t *testing.T) {
	got := DocumentKey("app-1", "cover", 1700000000000, "Letter.DOCX")
	if got != "app-1/cover_1700000000000.docx" {
		t.Fatalf("unexpected key %q", got)
	}
	if Extension("noext") != "bin" {
		t.Fatalf("expected bin for missing extension")
	}
}
