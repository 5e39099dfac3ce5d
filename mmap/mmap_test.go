package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestMapFileRead(t *testing.T) {
	want := []byte("hello, mapped world")
	path := writeTemp(t, want)

	m, err := MapFile(path, false)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	defer m.Close()

	if m.Size() != int64(len(want)) {
		t.Fatalf("size = %d, want %d", m.Size(), len(want))
	}
	if m.Writable() {
		t.Fatal("read-only mapping reports writable")
	}
	if got := string(m.Data()); got != string(want) {
		t.Fatalf("data = %q, want %q", got, want)
	}
}

func TestMapFileWriteAndSync(t *testing.T) {
	path := writeTemp(t, make([]byte, 64))

	m, err := MapFile(path, true)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	copy(m.Data(), "persisted")
	if err := m.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got[:9]) != "persisted" {
		t.Fatalf("file contents = %q", got[:9])
	}
}

func TestMapFileEmpty(t *testing.T) {
	path := writeTemp(t, nil)
	if _, err := MapFile(path, false); err != ErrEmptyFile {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	path := writeTemp(t, []byte("x"))
	m, err := MapFile(path, false)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if m.Data() != nil {
		t.Fatal("data not cleared after Close")
	}
}
