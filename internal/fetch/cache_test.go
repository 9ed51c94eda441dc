package fetch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskCache(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cache, err := NewDiskCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewDiskCache() error = %v", err)
		}

		data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
		if err := cache.Put("card_0.png", data); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, ok, err := cache.Get("card_0.png")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok {
			t.Fatal("Get() reported a miss for a stored key")
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Get() = %v, want %v", got, data)
		}
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		cache, err := NewDiskCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewDiskCache() error = %v", err)
		}
		_, ok, err := cache.Get("nope.png")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit for an absent key")
		}
	})

	t.Run("overwrite is idempotent", func(t *testing.T) {
		cache, err := NewDiskCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewDiskCache() error = %v", err)
		}
		if err := cache.Put("k.png", []byte("first")); err != nil {
			t.Fatalf("first Put() error = %v", err)
		}
		if err := cache.Put("k.png", []byte("second")); err != nil {
			t.Fatalf("second Put() error = %v", err)
		}
		got, _, err := cache.Get("k.png")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get() = %q, want %q", got, "second")
		}

		// No temp files left behind.
		entries, err := os.ReadDir(cache.Root())
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("cache dir has %d entries, want 1", len(entries))
		}
	})

	t.Run("creates missing root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "cache")
		if _, err := NewDiskCache(root); err != nil {
			t.Fatalf("NewDiskCache() error = %v", err)
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			t.Errorf("cache root not created: %v", err)
		}
	})
}
