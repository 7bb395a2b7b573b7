package models

import (
	"testing"
	"time"
)

func TestNextUID(t *testing.T) {
	seen := make(map[uint64]struct{})
	for i := 0; i < 100; i++ {
		uid := NextUID()
		if _, dup := seen[uid]; dup {
			t.Fatalf("NextUID returned %d twice", uid)
		}
		seen[uid] = struct{}{}
	}
}

func TestRawNode(t *testing.T) {
	t.Run("constructors", func(t *testing.T) {
		folder := NewFolder("Crates")
		if !folder.IsFolder() || folder.IsPlaylist() {
			t.Error("NewFolder should build a folder node")
		}
		if folder.UID == 0 {
			t.Error("expected a non-zero uid")
		}

		playlist := NewPlaylist("Warmup", "id-1")
		if !playlist.IsPlaylist() || playlist.IsFolder() {
			t.Error("NewPlaylist should build a playlist node")
		}
		if playlist.ID != "id-1" {
			t.Errorf("expected ID 'id-1', got '%s'", playlist.ID)
		}
		if playlist.UID == folder.UID {
			t.Error("expected distinct uids across nodes")
		}
	})

	t.Run("SyncCount", func(t *testing.T) {
		folder := NewFolder("Crates")
		folder.Children = []*RawNode{NewPlaylist("A", "a"), NewPlaylist("B", "b")}
		folder.SyncCount()
		if folder.Count != 2 {
			t.Errorf("expected count 2, got %d", folder.Count)
		}

		folder.Children = folder.Children[:1]
		folder.SyncCount()
		if folder.Count != 1 {
			t.Errorf("expected count 1 after removal, got %d", folder.Count)
		}
	})
}

func TestTrackEntry(t *testing.T) {
	t.Run("Key", func(t *testing.T) {
		entry := &TrackEntry{Volume: "VOL1", Dir: "/Music/", File: "one.mp3"}
		if got := entry.Key(); got != "VOL1/Music/one.mp3" {
			t.Errorf("unexpected key: %s", got)
		}
	})

	t.Run("Apply patches set fields only", func(t *testing.T) {
		entry := &TrackEntry{
			Volume: "VOL1", Dir: "/Music/", File: "one.mp3",
			Title: "Old Title", Artist: "Old Artist", BPM: 120,
		}

		title := "New Title"
		bpm := 128.5
		now := time.Date(2025, time.August, 28, 12, 0, 0, 0, time.UTC)
		entry.Apply(TrackUpdate{Title: &title, BPM: &bpm}, now)

		if entry.Title != "New Title" {
			t.Errorf("expected title updated, got '%s'", entry.Title)
		}
		if entry.BPM != 128.5 {
			t.Errorf("expected bpm updated, got %v", entry.BPM)
		}
		if entry.Artist != "Old Artist" {
			t.Errorf("nil field should be untouched, got '%s'", entry.Artist)
		}
		if !entry.ModifiedDate.Equal(now) {
			t.Errorf("expected ModifiedDate stamped, got %v", entry.ModifiedDate)
		}
	})
}

func TestNewLibrary(t *testing.T) {
	lib := NewLibrary()
	if lib.Root == nil || !lib.Root.IsFolder() {
		t.Fatal("expected a folder root")
	}
	if lib.Root.Name != "$ROOT" {
		t.Errorf("expected root named $ROOT, got '%s'", lib.Root.Name)
	}
	if len(lib.Catalog) != 0 {
		t.Errorf("expected empty catalog, got %d entries", len(lib.Catalog))
	}
}
