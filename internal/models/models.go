package models

import (
	"sync/atomic"
	"time"
)

// NodeType discriminates the two RawNode variants.
type NodeType string

const (
	NodeFolder   NodeType = "folder"
	NodePlaylist NodeType = "playlist"
)

// uidCounter feeds RawNode.UID. Node identity inside one process is the
// uid, never the pointer: a node survives serialization round trips and
// index rebuilds with the same uid, so sibling removal can match on it.
var uidCounter atomic.Uint64

// NextUID returns a process-unique node identifier.
func NextUID() uint64 {
	return uidCounter.Add(1)
}

// RawNode is a node in the collection tree: either a folder holding child
// nodes, or a playlist holding entry references into the track catalog.
//
// Folder fields: Children, Count. Count is redundant with len(Children)
// and must be kept equal by every mutation.
//
// Playlist fields: ID (stable identifier carried by the document) and
// Entries, pointers shared with the catalog rather than copies.
type RawNode struct {
	UID  uint64
	Type NodeType
	Name string

	// Folder
	Children []*RawNode
	Count    int

	// Playlist
	ID      string
	Entries []*TrackEntry
}

// NewFolder creates an empty folder node with a fresh uid.
func NewFolder(name string) *RawNode {
	return &RawNode{UID: NextUID(), Type: NodeFolder, Name: name}
}

// NewPlaylist creates an empty playlist node with a fresh uid.
func NewPlaylist(name, id string) *RawNode {
	return &RawNode{UID: NextUID(), Type: NodePlaylist, Name: name, ID: id}
}

// IsFolder reports whether the node is a folder.
func (n *RawNode) IsFolder() bool { return n.Type == NodeFolder }

// IsPlaylist reports whether the node is a playlist.
func (n *RawNode) IsPlaylist() bool { return n.Type == NodePlaylist }

// SyncCount refreshes the cached child count from the live child list.
func (n *RawNode) SyncCount() { n.Count = len(n.Children) }

// TrackEntry is a flat catalog record. The composite location
// (volume+dir+file) is unique across the catalog and is the sole join key
// between playlist entries and the catalog. Entries are never deleted by
// the engine; only field values change.
type TrackEntry struct {
	Volume string
	Dir    string
	File   string

	Title   string
	Artist  string
	Album   string
	BPM     float64
	Rating  string
	Genre   string
	Label   string
	Comment string

	ImportDate   time.Time
	ModifiedDate time.Time

	Bitrate  int
	FileSize int64
}

// Key returns the composite location key joining this entry to playlist
// references in the node tree.
func (t *TrackEntry) Key() string {
	return t.Volume + t.Dir + t.File
}

// TrackUpdate is a patch of optional field values. Nil fields are left
// untouched; the location components are immutable and cannot appear here.
type TrackUpdate struct {
	Title   *string  `json:"title,omitempty"`
	Artist  *string  `json:"artist,omitempty"`
	Album   *string  `json:"album,omitempty"`
	BPM     *float64 `json:"bpm,omitempty"`
	Rating  *string  `json:"rating,omitempty"`
	Genre   *string  `json:"genre,omitempty"`
	Label   *string  `json:"label,omitempty"`
	Comment *string  `json:"comment,omitempty"`
}

// Apply copies the set fields of the update onto the entry and stamps
// ModifiedDate with now.
func (t *TrackEntry) Apply(u TrackUpdate, now time.Time) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Artist != nil {
		t.Artist = *u.Artist
	}
	if u.Album != nil {
		t.Album = *u.Album
	}
	if u.BPM != nil {
		t.BPM = *u.BPM
	}
	if u.Rating != nil {
		t.Rating = *u.Rating
	}
	if u.Genre != nil {
		t.Genre = *u.Genre
	}
	if u.Label != nil {
		t.Label = *u.Label
	}
	if u.Comment != nil {
		t.Comment = *u.Comment
	}
	t.ModifiedDate = now
}

// Library is the in-memory document: one designated root folder plus the
// flat catalog. The tree is acyclic and every non-root node has exactly
// one parent reachable by descent from Root.
type Library struct {
	Root    *RawNode
	Catalog []*TrackEntry
}

// NewLibrary returns an empty library with a root folder.
func NewLibrary() *Library {
	return &Library{Root: NewFolder("$ROOT")}
}

// NodeRef records where a node was found during the last index pass. It is
// a view, not a source of truth: ownership of the node stays with the
// tree, and the ref is discarded wholesale whenever tree shape changes,
// because a path is a function of position, not identity.
type NodeRef struct {
	Path       string
	Type       NodeType
	Node       *RawNode
	ParentPath string
	Parent     *RawNode
}

// SidebarNode is the read-only display projection of the tree. All
// mutation happens on RawNode; the projection is rebuilt, never edited.
type SidebarNode struct {
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Path       string         `json:"path"`
	ParentPath string         `json:"parentPath,omitempty"`
	Depth      int            `json:"depth"`
	Size       int            `json:"size"`
	// PlaylistCount and TrackCount aggregate over the subtree rooted here.
	PlaylistCount int            `json:"playlistCount"`
	TrackCount    int            `json:"trackCount"`
	Children      []*SidebarNode `json:"children,omitempty"`
}
