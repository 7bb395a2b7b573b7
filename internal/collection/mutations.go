package collection

import (
	"context"
	"fmt"
	"sort"

	"cratedex/internal/models"
	"cratedex/internal/shared"
)

// MoveRequest names one playlist move by path.
type MoveRequest struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
}

// MoveResult reports one item of a batch move. Err is nil on success.
type MoveResult struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
	Err        error  `json:"-"`
}

// TrackUpdateRequest names one catalog entry update by key.
type TrackUpdateRequest struct {
	Key    string             `json:"key"`
	Update models.TrackUpdate `json:"update"`
}

// TrackUpdateResult reports one item of a batch track update.
type TrackUpdateResult struct {
	Key string `json:"key"`
	Err error  `json:"-"`
}

// CreateFolder prepends a new empty folder to the children of the folder
// at parentPath and returns the new folder's path.
func (e *Engine) CreateFolder(ctx context.Context, parentPath, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", err
	}

	parent, err := e.resolveFolder(parentPath)
	if err != nil {
		return "", err
	}

	folder := models.NewFolder(name)
	parent.Node.Children = append([]*models.RawNode{folder}, parent.Node.Children...)
	parent.Node.SyncCount()

	if err := e.finish(ctx); err != nil {
		return "", err
	}
	return e.pathOf(folder.UID), nil
}

// CreatePlaylist prepends a new empty playlist, with a fresh identifier,
// to the folder at folderPath and returns the playlist's path.
func (e *Engine) CreatePlaylist(ctx context.Context, folderPath, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", err
	}

	parent, err := e.resolveFolder(folderPath)
	if err != nil {
		return "", err
	}

	playlist := models.NewPlaylist(name, shared.GenerateID())
	parent.Node.Children = append([]*models.RawNode{playlist}, parent.Node.Children...)
	parent.Node.SyncCount()

	if err := e.finish(ctx); err != nil {
		return "", err
	}
	return e.pathOf(playlist.UID), nil
}

// RenamePlaylist changes a playlist's name in place and returns its path
// after the rename. Other nodes keep their paths.
func (e *Engine) RenamePlaylist(ctx context.Context, path, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", err
	}

	ref, err := e.resolvePlaylist(path)
	if err != nil {
		return "", err
	}

	node := ref.Node
	node.Name = name

	if err := e.finish(ctx); err != nil {
		return "", err
	}
	return e.pathOf(node.UID), nil
}

// MovePlaylist moves one playlist into the folder at targetPath and
// returns the playlist's new path.
func (e *Engine) MovePlaylist(ctx context.Context, sourcePath, targetPath string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", err
	}

	source, err := e.resolvePlaylist(sourcePath)
	if err != nil {
		return "", err
	}
	target, err := e.resolveFolder(targetPath)
	if err != nil {
		return "", err
	}

	if err := moveNode(source, target.Node); err != nil {
		return "", err
	}

	if err := e.finish(ctx); err != nil {
		return "", err
	}
	return e.pathOf(source.Node.UID), nil
}

// MovePlaylistBatch applies each move independently against the index as
// it stood when the batch began, reports per-item results, and writes
// through once at the end. Partial success is expected: one bad item
// never aborts the rest.
func (e *Engine) MovePlaylistBatch(ctx context.Context, moves []MoveRequest) ([]MoveResult, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, 0, err
	}

	// Resolve every path up front: a move changes the paths of later
	// nodes, so items are interpreted against the pre-batch tree.
	type resolved struct {
		source *models.NodeRef
		target *models.NodeRef
		err    error
	}
	plan := make([]resolved, len(moves))
	for i, mv := range moves {
		source, err := e.resolvePlaylist(mv.SourcePath)
		if err != nil {
			plan[i] = resolved{err: err}
			continue
		}
		target, err := e.resolveFolder(mv.TargetPath)
		if err != nil {
			plan[i] = resolved{err: err}
			continue
		}
		plan[i] = resolved{source: source, target: target}
	}

	results := make([]MoveResult, len(moves))
	succeeded := 0
	mutated := false
	for i, mv := range moves {
		results[i] = MoveResult{SourcePath: mv.SourcePath, TargetPath: mv.TargetPath}
		if plan[i].err != nil {
			results[i].Err = plan[i].err
			continue
		}
		if err := moveNode(plan[i].source, plan[i].target.Node); err != nil {
			results[i].Err = err
			continue
		}
		mutated = true
		succeeded++
	}

	if mutated {
		if err := e.finish(ctx); err != nil {
			return results, succeeded, err
		}
	}
	return results, succeeded, nil
}

// moveNode detaches ref's node from its recorded parent and prepends it
// to the target folder's children. The child is located by uid, and its
// absence means the tree diverged from the cached reference since the
// index was built, which is fatal for this item.
func moveNode(ref *models.NodeRef, target *models.RawNode) error {
	parent := ref.Parent
	if parent == nil {
		return fmt.Errorf("%w: %s has no parent", shared.ErrNotFound, ref.Path)
	}

	idx := -1
	for i, child := range parent.Children {
		if child.UID == ref.Node.UID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s no longer under its parent", shared.ErrNotFound, ref.Path)
	}

	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	parent.SyncCount()

	target.Children = append([]*models.RawNode{ref.Node}, target.Children...)
	target.SyncCount()
	return nil
}

// DuplicatePlaylist copies the playlist at sourcePath into the folder at
// targetPath under a fresh identifier. The entry list is copied; the
// entries themselves stay shared with the catalog. An empty name keeps
// the source's name.
func (e *Engine) DuplicatePlaylist(ctx context.Context, sourcePath, targetPath, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", err
	}

	source, err := e.resolvePlaylist(sourcePath)
	if err != nil {
		return "", err
	}
	target, err := e.resolveFolder(targetPath)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = source.Node.Name
	}
	copied := models.NewPlaylist(name, shared.GenerateID())
	copied.Entries = append([]*models.TrackEntry(nil), source.Node.Entries...)

	target.Node.Children = append([]*models.RawNode{copied}, target.Node.Children...)
	target.Node.SyncCount()

	if err := e.finish(ctx); err != nil {
		return "", err
	}
	return e.pathOf(copied.UID), nil
}

// CreateOrphansPlaylist collects every catalog track referenced by no
// playlist into a new playlist under the folder at targetPath. When the
// catalog has no orphans there is nothing to do: the engine reports
// created=false without treating it as an error.
func (e *Engine) CreateOrphansPlaylist(ctx context.Context, targetPath, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return "", false, err
	}

	target, err := e.resolveFolder(targetPath)
	if err != nil {
		return "", false, err
	}

	referenced := make(map[string]struct{})
	collectReferenced(e.lib.Root, referenced)

	var orphans []*models.TrackEntry
	for _, entry := range e.lib.Catalog {
		if _, ok := referenced[entry.Key()]; !ok {
			orphans = append(orphans, entry)
		}
	}
	if len(orphans) == 0 {
		return "", false, nil
	}

	if name == "" {
		name = "Orphans"
	}
	playlist := models.NewPlaylist(name, shared.GenerateID())
	playlist.Entries = orphans

	target.Node.Children = append([]*models.RawNode{playlist}, target.Node.Children...)
	target.Node.SyncCount()

	if err := e.finish(ctx); err != nil {
		return "", false, err
	}
	return e.pathOf(playlist.UID), true, nil
}

func collectReferenced(node *models.RawNode, keys map[string]struct{}) {
	if node.IsPlaylist() {
		for _, entry := range node.Entries {
			keys[entry.Key()] = struct{}{}
		}
		return
	}
	for _, child := range node.Children {
		collectReferenced(child, keys)
	}
}

// DeleteNodes removes the nodes at the given paths, folders recursively.
// Best effort: a path that does not resolve, or whose parent is gone, is
// skipped and logged rather than failing the batch. Returns how many
// nodes were removed.
func (e *Engine) DeleteNodes(ctx context.Context, paths []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return 0, err
	}

	// Snapshot refs against the pre-delete index; deleting shifts paths.
	refs := make([]*models.NodeRef, 0, len(paths))
	for _, path := range paths {
		ref, err := e.resolve(path)
		if err != nil {
			e.logger.Warn("delete skipped, path not found", "path", path)
			continue
		}
		if ref.Parent == nil {
			e.logger.Warn("delete skipped, node has no parent", "path", path)
			continue
		}
		refs = append(refs, ref)
	}

	deleted := 0
	for _, ref := range refs {
		parent := ref.Parent
		idx := -1
		for i, child := range parent.Children {
			if child.UID == ref.Node.UID {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Already gone, e.g. its folder was deleted earlier in the batch.
			e.logger.Warn("delete skipped, node already detached", "path", ref.Path)
			continue
		}
		parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
		parent.SyncCount()
		deleted++
	}

	if deleted == 0 {
		return 0, nil
	}
	if err := e.finish(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// GetPlaylistTracks returns the entries of the playlist at path, in
// playlist order.
func (e *Engine) GetPlaylistTracks(path string) ([]*models.TrackEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, err
	}

	ref, err := e.resolvePlaylist(path)
	if err != nil {
		return nil, err
	}
	return append([]*models.TrackEntry(nil), ref.Node.Entries...), nil
}

// GetAllTracks returns the flat catalog in document order.
func (e *Engine) GetAllTracks() ([]*models.TrackEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, err
	}
	return append([]*models.TrackEntry(nil), e.lib.Catalog...), nil
}

// UpdateTrack patches the catalog entry with the given key in place.
func (e *Engine) UpdateTrack(ctx context.Context, key string, update models.TrackUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return err
	}

	e.ensureTrackIndex()
	entry, ok := e.trackIndex[key]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, key)
	}

	entry.Apply(update, e.now())
	return e.finish(ctx)
}

// UpdateTracksBatch applies each update independently and writes through
// once. Unknown keys fail their own item only.
func (e *Engine) UpdateTracksBatch(ctx context.Context, updates []TrackUpdateRequest) ([]TrackUpdateResult, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, 0, err
	}

	e.ensureTrackIndex()
	results := make([]TrackUpdateResult, len(updates))
	succeeded := 0
	now := e.now()
	for i, u := range updates {
		results[i] = TrackUpdateResult{Key: u.Key}
		entry, ok := e.trackIndex[u.Key]
		if !ok {
			results[i].Err = fmt.Errorf("%w: %s", shared.ErrTrackNotFound, u.Key)
			continue
		}
		entry.Apply(u.Update, now)
		succeeded++
	}

	if succeeded > 0 {
		if err := e.finish(ctx); err != nil {
			return results, succeeded, err
		}
	}
	return results, succeeded, nil
}

// GetUniqueComments returns the distinct non-empty comment strings in the
// catalog, sorted.
func (e *Engine) GetUniqueComments() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range e.lib.Catalog {
		if entry.Comment == "" {
			continue
		}
		seen[entry.Comment] = struct{}{}
	}

	comments := make([]string, 0, len(seen))
	for c := range seen {
		comments = append(comments, c)
	}
	sort.Strings(comments)
	return comments, nil
}

// UpdateCommentsBatch rewrites the comment of every catalog entry whose
// comment matches one of oldComments, returning how many entries changed.
func (e *Engine) UpdateCommentsBatch(ctx context.Context, oldComments []string, newComment string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return 0, err
	}

	match := make(map[string]struct{}, len(oldComments))
	for _, c := range oldComments {
		match[c] = struct{}{}
	}

	changed := 0
	now := e.now()
	for _, entry := range e.lib.Catalog {
		if _, ok := match[entry.Comment]; !ok {
			continue
		}
		entry.Comment = newComment
		entry.ModifiedDate = now
		changed++
	}

	if changed == 0 {
		return 0, nil
	}
	if err := e.finish(ctx); err != nil {
		return changed, err
	}
	return changed, nil
}
