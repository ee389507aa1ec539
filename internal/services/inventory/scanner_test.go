package inventory

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestScan(t *testing.T) {
	dir := t.TempDir()

	touch(t, dir, "ab12cd34ef56.mp3", time.Time{})
	touch(t, dir, "0123456789ab.M4A", time.Time{}) // extension case-insensitive
	touch(t, dir, "cover.jpg", time.Time{})
	touch(t, dir, "notanid.mp3", time.Time{})
	touch(t, dir, "AB12CD34EF56.mp3", time.Time{}) // uppercase stem is not an id
	touch(t, dir, "ab12cd34ef5.mp3", time.Time{})  // short stem
	touch(t, dir, ".ab12cd34ef99.mp3", time.Time{})
	if err := os.Mkdir(filepath.Join(dir, "ffffffffffff.mp3"), 0755); err != nil {
		t.Fatal(err)
	}

	inv := Scan(dir)

	if len(inv) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(inv), inv)
	}
	entry, ok := inv["ab12cd34ef56"]
	if !ok {
		t.Fatal("expected ab12cd34ef56 in inventory")
	}
	if entry.Filename != "ab12cd34ef56.mp3" {
		t.Errorf("Filename = %s", entry.Filename)
	}
	if entry.Path != filepath.Join(dir, "ab12cd34ef56.mp3") {
		t.Errorf("Path = %s", entry.Path)
	}
	if _, ok := inv["0123456789ab"]; !ok {
		t.Error("expected uppercase-extension file to be indexed")
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	inv := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if inv == nil {
		t.Fatal("missing directory must yield an empty map, not nil")
	}
	if len(inv) != 0 {
		t.Errorf("expected empty inventory, got %v", inv)
	}
}

func TestScanAudio(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	touch(t, dir, "second.mp3", base.Add(2*time.Minute))
	touch(t, dir, "first.ogg", base.Add(time.Minute))
	touch(t, dir, "third.m4a", base.Add(3*time.Minute))
	touch(t, dir, "notes.txt", base)
	touch(t, dir, ".partial.mp3", base)

	files := ScanAudio(dir)

	if len(files) != 3 {
		t.Fatalf("expected 3 audio files, got %d", len(files))
	}
	want := []string{"first.ogg", "second.mp3", "third.m4a"}
	for i, name := range want {
		if files[i].Filename != name {
			t.Errorf("files[%d] = %s, want %s (oldest first)", i, files[i].Filename, name)
		}
	}
}

func TestScanAudio_MissingDirectory(t *testing.T) {
	if files := ScanAudio(filepath.Join(t.TempDir(), "nope")); len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}
