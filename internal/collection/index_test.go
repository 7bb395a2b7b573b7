package collection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"cratedex/internal/models"
	"cratedex/internal/shared"
)

// collectPaths flattens a sidebar into a pre-order path list.
func collectPaths(node *models.SidebarNode, out *[]string) {
	*out = append(*out, node.Path)
	for _, child := range node.Children {
		collectPaths(child, out)
	}
}

// findByName returns the first sidebar node with the given name, pre-order.
func findByName(node *models.SidebarNode, name string) *models.SidebarNode {
	if node.Name == name {
		return node
	}
	for _, child := range node.Children {
		if found := findByName(child, name); found != nil {
			return found
		}
	}
	return nil
}

// checkCounts verifies the recursive playlist/track aggregates of every
// folder against a fresh walk of its subtree.
func checkCounts(t *testing.T, node *models.SidebarNode) {
	t.Helper()
	if node.Type == models.NodePlaylist {
		return
	}
	playlists, tracks := 0, 0
	for _, child := range node.Children {
		checkCounts(t, child)
		playlists += child.PlaylistCount
		tracks += child.TrackCount
	}
	if node.PlaylistCount != playlists {
		t.Errorf("folder %s playlist count %d, children sum %d", node.Path, node.PlaylistCount, playlists)
	}
	if node.TrackCount != tracks {
		t.Errorf("folder %s track count %d, children sum %d", node.Path, node.TrackCount, tracks)
	}
}

func TestSidebar(t *testing.T) {
	t.Run("paths follow slug and counter order", func(t *testing.T) {
		engine := newTestEngine(t)
		sidebar, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}

		var paths []string
		collectPaths(sidebar, &paths)
		expected := []string{
			"root-0",
			"root-0/house-1",
			"root-0/house-1/deep-2",
			"root-0/house-1/tech-3",
			"root-0/inbox-4",
		}
		if !reflect.DeepEqual(paths, expected) {
			t.Errorf("unexpected paths:\n got %v\nwant %v", paths, expected)
		}
	})

	t.Run("consecutive reads return identical paths", func(t *testing.T) {
		engine := newTestEngine(t)
		first, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}
		second, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}

		var a, b []string
		collectPaths(first, &a)
		collectPaths(second, &b)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("paths changed without a mutation:\n%v\n%v", a, b)
		}
	})

	t.Run("aggregates", func(t *testing.T) {
		engine := newTestEngine(t)
		sidebar, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}

		if sidebar.PlaylistCount != 3 {
			t.Errorf("expected 3 playlists under root, got %d", sidebar.PlaylistCount)
		}
		// Deep holds 2, Tech 1, Inbox 1: entries count per playlist, shared
		// tracks counted once per playlist.
		if sidebar.TrackCount != 4 {
			t.Errorf("expected track count 4 under root, got %d", sidebar.TrackCount)
		}

		house := findByName(sidebar, "House")
		if house == nil {
			t.Fatal("House folder missing from sidebar")
		}
		if house.PlaylistCount != 2 || house.TrackCount != 3 {
			t.Errorf("unexpected House aggregates: %d playlists, %d tracks", house.PlaylistCount, house.TrackCount)
		}

		deep := findByName(sidebar, "Deep")
		if deep == nil || deep.Size != 2 {
			t.Errorf("expected Deep playlist with size 2, got %+v", deep)
		}

		checkCounts(t, sidebar)
	})

	t.Run("aggregates hold after mutations", func(t *testing.T) {
		ctx := context.Background()
		engine := newTestEngine(t)
		sidebar, _ := engine.GetSidebar()
		house := findByName(sidebar, "House")

		folderPath, err := engine.CreateFolder(ctx, house.Path, "Sub")
		if err != nil {
			t.Fatalf("CreateFolder failed: %v", err)
		}
		if _, err := engine.CreatePlaylist(ctx, folderPath, "Nested"); err != nil {
			t.Fatalf("CreatePlaylist failed: %v", err)
		}

		sidebar, err = engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}
		checkCounts(t, sidebar)

		house = findByName(sidebar, "House")
		if house.PlaylistCount != 3 {
			t.Errorf("expected House to aggregate the nested playlist, got %d", house.PlaylistCount)
		}
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	sidebar, _ := engine.GetSidebar()
	deep := findByName(sidebar, "Deep")
	house := findByName(sidebar, "House")

	t.Run("unknown path", func(t *testing.T) {
		if _, err := engine.GetPlaylistTracks("root-0/nothing-9"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("folder where playlist expected", func(t *testing.T) {
		if _, err := engine.GetPlaylistTracks(house.Path); !errors.Is(err, shared.ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("playlist where folder expected", func(t *testing.T) {
		if _, err := engine.CreateFolder(ctx, deep.Path, "Nope"); !errors.Is(err, shared.ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("stale path after mutation", func(t *testing.T) {
		if _, err := engine.CreateFolder(ctx, sidebar.Path, "Shift"); err != nil {
			t.Fatalf("CreateFolder failed: %v", err)
		}
		// Deep's counter segment moved; the old path no longer resolves.
		if _, err := engine.GetPlaylistTracks(deep.Path); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected stale path to miss, got %v", err)
		}
	})
}
