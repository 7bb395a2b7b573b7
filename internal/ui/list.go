package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"cratedex/internal/models"
)

var (
	_ list.Item = nodeItem{}
	_ list.Item = trackItem{}
)

// nodeItem wraps [models.SidebarNode] to implement [list.Item].
type nodeItem struct {
	node *models.SidebarNode
}

func (i nodeItem) FilterValue() string { return i.node.Name }

func (i nodeItem) Title() string {
	if i.node.Type == models.NodeFolder {
		return i.node.Name + "/"
	}
	return i.node.Name
}

func (i nodeItem) Description() string {
	if i.node.Type == models.NodeFolder {
		return fmt.Sprintf("%d playlists • %d tracks", i.node.PlaylistCount, i.node.TrackCount)
	}
	return fmt.Sprintf("%d tracks", i.node.Size)
}

// trackItem wraps [models.TrackEntry] to implement [list.Item].
type trackItem struct {
	track *models.TrackEntry
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.BPM != 0 {
		desc = fmt.Sprintf("%s • %.0f BPM", desc, i.track.BPM)
	}
	return desc
}
