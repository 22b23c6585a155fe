package upload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weathercraft/weathercraft/internal/domain"
)

func TestSave_StoresFileUnderRandomName(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	url, err := storage.Save(strings.NewReader("fake image bytes"), "storm.JPG")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(url, URLPrefix) {
		t.Errorf("url = %q, want %q prefix", url, URLPrefix)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("url = %q, want lowercased original extension", url)
	}
	if strings.Contains(url, "storm") {
		t.Errorf("url = %q must not leak the original file name", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "uploads", strings.TrimPrefix(url, URLPrefix)))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestSave_RejectsUnknownExtension(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, name := range []string{"malware.exe", "report.pdf", "noext"} {
		_, err := storage.Save(strings.NewReader("x"), name)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Save(%q) error = %v, want ErrValidation", name, err)
		}
	}
}
