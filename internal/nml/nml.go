// Package nml parses and serializes the XML collection document exchanged
// with DJ software: a flat COLLECTION section of track records and a
// PLAYLISTS section holding one root folder node that recursively contains
// folder and playlist children. Playlist children reference catalog
// entries by their composite location key.
//
// The codec does not promise byte-stable round trips; callers that need
// verbatim reads must cache the original document bytes themselves.
package nml

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"cratedex/internal/models"
	"cratedex/internal/shared"
)

const (
	nodeTypeFolder   = "FOLDER"
	nodeTypePlaylist = "PLAYLIST"
	keyTypeLocation  = "KEY"
)

type xmlLibrary struct {
	XMLName    xml.Name      `xml:"LIBRARY"`
	Version    string        `xml:"VERSION,attr,omitempty"`
	Collection xmlCollection `xml:"COLLECTION"`
	Playlists  xmlPlaylists  `xml:"PLAYLISTS"`
}

type xmlCollection struct {
	Entries int        `xml:"ENTRIES,attr"`
	Tracks  []xmlTrack `xml:"TRACK"`
}

type xmlTrack struct {
	Volume       string `xml:"VOLUME,attr"`
	Dir          string `xml:"DIR,attr"`
	File         string `xml:"FILE,attr"`
	Title        string `xml:"TITLE,attr,omitempty"`
	Artist       string `xml:"ARTIST,attr,omitempty"`
	Album        string `xml:"ALBUM,attr,omitempty"`
	BPM          string `xml:"BPM,attr,omitempty"`
	Rating       string `xml:"RANKING,attr,omitempty"`
	Genre        string `xml:"GENRE,attr,omitempty"`
	Label        string `xml:"LABEL,attr,omitempty"`
	Comment      string `xml:"COMMENT,attr,omitempty"`
	ImportDate   string `xml:"IMPORT_DATE,attr,omitempty"`
	ModifiedDate string `xml:"MODIFIED_DATE,attr,omitempty"`
	Bitrate      int    `xml:"BITRATE,attr,omitempty"`
	FileSize     int64  `xml:"FILESIZE,attr,omitempty"`
}

type xmlPlaylists struct {
	Root xmlNode `xml:"NODE"`
}

type xmlNode struct {
	Type     string     `xml:"TYPE,attr"`
	Name     string     `xml:"NAME,attr"`
	Count    int        `xml:"COUNT,attr,omitempty"`
	ID       string     `xml:"UUID,attr,omitempty"`
	Children []xmlNode  `xml:"NODE,omitempty"`
	Entries  []xmlEntry `xml:"ENTRY,omitempty"`
}

type xmlEntry struct {
	Type string `xml:"TYPE,attr,omitempty"`
	Key  string `xml:"KEY,attr"`
}

// Codec converts between document bytes and the in-memory library model.
type Codec struct {
	logger *log.Logger
}

// NewCodec creates a Codec. A nil logger falls back to a default one.
func NewCodec(logger *log.Logger) *Codec {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Codec{logger: logger}
}

// Parse decodes document bytes into a Library. The catalog is decoded
// first so that playlist entry keys can be resolved into shared
// *TrackEntry pointers; entries referencing unknown keys are dropped with
// a warning rather than failing the whole document.
func (c *Codec) Parse(data []byte) (*models.Library, error) {
	var doc xmlLibrary
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDocumentMalformed, err)
	}

	lib := &models.Library{Catalog: make([]*models.TrackEntry, 0, len(doc.Collection.Tracks))}
	index := make(map[string]*models.TrackEntry, len(doc.Collection.Tracks))

	for _, t := range doc.Collection.Tracks {
		entry := &models.TrackEntry{
			Volume:       t.Volume,
			Dir:          t.Dir,
			File:         t.File,
			Title:        t.Title,
			Artist:       t.Artist,
			Album:        t.Album,
			Rating:       t.Rating,
			Genre:        t.Genre,
			Label:        t.Label,
			Comment:      t.Comment,
			ImportDate:   shared.ParseDate(t.ImportDate),
			ModifiedDate: shared.ParseDate(t.ModifiedDate),
			Bitrate:      t.Bitrate,
			FileSize:     t.FileSize,
		}
		if t.BPM != "" {
			if bpm, err := strconv.ParseFloat(t.BPM, 64); err == nil {
				entry.BPM = bpm
			}
		}
		key := entry.Key()
		if _, dup := index[key]; dup {
			c.logger.Warn("duplicate catalog key, keeping first", "key", key)
			continue
		}
		index[key] = entry
		lib.Catalog = append(lib.Catalog, entry)
	}

	root, err := c.parseNode(doc.Playlists.Root, index)
	if err != nil {
		return nil, err
	}
	if root == nil || !root.IsFolder() {
		return nil, fmt.Errorf("%w: root node must be a folder", shared.ErrDocumentMalformed)
	}
	lib.Root = root

	return lib, nil
}

func (c *Codec) parseNode(n xmlNode, index map[string]*models.TrackEntry) (*models.RawNode, error) {
	switch n.Type {
	case nodeTypeFolder:
		folder := models.NewFolder(n.Name)
		for _, child := range n.Children {
			node, err := c.parseNode(child, index)
			if err != nil {
				return nil, err
			}
			folder.Children = append(folder.Children, node)
		}
		folder.SyncCount()
		return folder, nil
	case nodeTypePlaylist:
		id := n.ID
		if id == "" {
			id = shared.GenerateID()
		}
		playlist := models.NewPlaylist(n.Name, id)
		for _, e := range n.Entries {
			entry, ok := index[e.Key]
			if !ok {
				c.logger.Warn("playlist references unknown track, dropping",
					"playlist", n.Name, "key", e.Key)
				continue
			}
			playlist.Entries = append(playlist.Entries, entry)
		}
		return playlist, nil
	default:
		return nil, fmt.Errorf("%w: unknown node type %q", shared.ErrDocumentMalformed, n.Type)
	}
}

// Serialize encodes the library back into document bytes.
func (c *Codec) Serialize(lib *models.Library) ([]byte, error) {
	if lib == nil || lib.Root == nil {
		return nil, fmt.Errorf("%w: nil library", shared.ErrInvalidInput)
	}

	doc := xmlLibrary{
		Version: "1.0",
		Collection: xmlCollection{
			Entries: len(lib.Catalog),
			Tracks:  make([]xmlTrack, 0, len(lib.Catalog)),
		},
	}

	for _, entry := range lib.Catalog {
		t := xmlTrack{
			Volume:       entry.Volume,
			Dir:          entry.Dir,
			File:         entry.File,
			Title:        entry.Title,
			Artist:       entry.Artist,
			Album:        entry.Album,
			Rating:       entry.Rating,
			Genre:        entry.Genre,
			Label:        entry.Label,
			Comment:      entry.Comment,
			ImportDate:   shared.FormatDate(entry.ImportDate),
			ModifiedDate: shared.FormatDate(entry.ModifiedDate),
			Bitrate:      entry.Bitrate,
			FileSize:     entry.FileSize,
		}
		if entry.BPM != 0 {
			t.BPM = strconv.FormatFloat(entry.BPM, 'f', -1, 64)
		}
		doc.Collection.Tracks = append(doc.Collection.Tracks, t)
	}

	doc.Playlists.Root = serializeNode(lib.Root)

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}

func serializeNode(n *models.RawNode) xmlNode {
	if n.IsFolder() {
		node := xmlNode{Type: nodeTypeFolder, Name: n.Name, Count: len(n.Children)}
		for _, child := range n.Children {
			node.Children = append(node.Children, serializeNode(child))
		}
		return node
	}

	node := xmlNode{Type: nodeTypePlaylist, Name: n.Name, ID: n.ID}
	for _, entry := range n.Entries {
		node.Entries = append(node.Entries, xmlEntry{Type: keyTypeLocation, Key: entry.Key()})
	}
	return node
}
