package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	key, err := store.Write(context.Background(), "camp_1/1_1/banner_japan.png", []byte("data"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "camp_1/1_1/banner_japan.png" {
		t.Fatalf("key = %q", key)
	}

	got, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(got) != "data" {
		t.Fatalf("content = %q", got)
	}
	if !store.Exists(key) {
		t.Fatalf("Exists = false for written key")
	}
	if store.Exists("camp_1/missing.png") {
		t.Fatalf("Exists = true for missing key")
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatalf("traversal key must be rejected")
	}
	if _, err := store.Write(context.Background(), "  ", []byte("x")); err == nil {
		t.Fatalf("blank key must be rejected")
	}
	entries, err := os.ReadDir(filepath.Dir(base))
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	for _, e := range entries {
		if e.Name() == "escape.png" {
			t.Fatalf("file escaped the storage root")
		}
	}
}

func TestWriteHonorsContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "k.png", []byte("x")); err == nil {
		t.Fatalf("cancelled context must abort the write")
	}
}
