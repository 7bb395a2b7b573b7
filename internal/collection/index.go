package collection

import (
	"fmt"

	"github.com/gosimple/slug"

	"cratedex/internal/models"
	"cratedex/internal/shared"
)

// fallbackSegment is used when a node name slugifies to nothing.
const fallbackSegment = "node"

// builder accumulates one index pass. The segment counter is global to
// the pass, so two siblings sharing a name still get distinct paths.
type builder struct {
	counter int
	index   map[string]*models.NodeRef
	uids    map[uint64]string
}

func (b *builder) segment(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = fallbackSegment
	}
	seg := fmt.Sprintf("%s-%d", s, b.counter)
	b.counter++
	return seg
}

// ensureIndex rebuilds the path index and sidebar projection when dirty.
// Repeated read-only calls between mutations hit the cache.
func (e *Engine) ensureIndex() {
	if !e.indexDirty && e.pathIndex != nil {
		return
	}

	b := &builder{
		index: make(map[string]*models.NodeRef),
		uids:  make(map[uint64]string),
	}
	e.sidebar = b.walk(e.lib.Root, nil, "", 0)
	e.pathIndex = b.index
	e.uidPaths = b.uids
	e.indexDirty = false
}

// walk is a depth-first pre-order traversal assigning paths and building
// the sidebar projection in the same pass, aggregates included.
func (b *builder) walk(node *models.RawNode, parent *models.RawNode, parentPath string, depth int) *models.SidebarNode {
	path := b.segment(node.Name)
	if parentPath != "" {
		path = parentPath + "/" + path
	}

	b.index[path] = &models.NodeRef{
		Path:       path,
		Type:       node.Type,
		Node:       node,
		ParentPath: parentPath,
		Parent:     parent,
	}
	b.uids[node.UID] = path

	view := &models.SidebarNode{
		Name:       node.Name,
		Type:       node.Type,
		Path:       path,
		ParentPath: parentPath,
		Depth:      depth,
	}

	if node.IsPlaylist() {
		view.Size = len(node.Entries)
		view.PlaylistCount = 1
		view.TrackCount = len(node.Entries)
		return view
	}

	for _, child := range node.Children {
		childView := b.walk(child, node, path, depth+1)
		view.Children = append(view.Children, childView)
		view.PlaylistCount += childView.PlaylistCount
		view.TrackCount += childView.TrackCount
	}
	return view
}

// GetSidebar returns the display projection of the tree. Consecutive
// calls without an intervening mutation return identical paths.
func (e *Engine) GetSidebar() (*models.SidebarNode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, err
	}
	e.ensureIndex()
	return e.sidebar, nil
}

// resolve looks a path up in the current index.
func (e *Engine) resolve(path string) (*models.NodeRef, error) {
	e.ensureIndex()
	ref, ok := e.pathIndex[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, path)
	}
	return ref, nil
}

// resolveFolder resolves a path and asserts the node is a folder.
func (e *Engine) resolveFolder(path string) (*models.NodeRef, error) {
	ref, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	if !ref.Node.IsFolder() {
		return nil, fmt.Errorf("%w: %s is not a folder", shared.ErrTypeMismatch, path)
	}
	return ref, nil
}

// resolvePlaylist resolves a path and asserts the node is a playlist.
func (e *Engine) resolvePlaylist(path string) (*models.NodeRef, error) {
	ref, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	if !ref.Node.IsPlaylist() {
		return nil, fmt.Errorf("%w: %s is not a playlist", shared.ErrTypeMismatch, path)
	}
	return ref, nil
}

// pathOf returns the current path of a node after an index rebuild,
// located by uid rather than pointer identity.
func (e *Engine) pathOf(uid uint64) string {
	e.ensureIndex()
	return e.uidPaths[uid]
}

// ensureTrackIndex builds the key → entry lookup over the flat catalog.
func (e *Engine) ensureTrackIndex() {
	if e.trackIndex != nil {
		return
	}
	idx := make(map[string]*models.TrackEntry, len(e.lib.Catalog))
	for _, entry := range e.lib.Catalog {
		idx[entry.Key()] = entry
	}
	e.trackIndex = idx
}
