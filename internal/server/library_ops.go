package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"cratedex/internal/collection"
	"cratedex/internal/matching"
	"cratedex/internal/shared"
)

func (h *LibraryHandler) getSidebar(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sidebar, err := engine.GetSidebar()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sidebar)
}

func (h *LibraryHandler) getDocument(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := engine.GetDocument(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// putDocument accepts a raw collection document. With an owner parameter
// it replaces the owner's durable document; without one it opens a
// transient session and returns the session key.
func (h *LibraryHandler) putDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if _, err := h.codec.Parse(body); err != nil {
		writeError(w, err)
		return
	}

	if owner := r.URL.Query().Get("owner"); owner != "" {
		persister := collection.NewDurablePersister(h.blobs, h.pointers, h.logger)
		location, err := persister.Persist(r.Context(), owner, body)
		if err != nil {
			writeError(w, err)
			return
		}
		// The cached engine, if any, still reflects the old document.
		h.sessions.Invalidate(owner)
		writeData(w, http.StatusOK, map[string]string{"location": location})
		return
	}

	key := shared.GenerateID()
	engine := collection.NewEngine(collection.Options{
		Owner:  key,
		Mode:   collection.ModeTransient,
		Source: collection.BytesSource(body),
		Codec:  h.codec,
		Logger: h.logger,
	})
	if err := engine.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.sessions.Get(r.Context(), key, func(context.Context, string) (*collection.Engine, error) {
		return engine, nil
	}); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Debug("session opened", "session", engine.Owner(), "mode", engine.Mode())
	writeData(w, http.StatusCreated, map[string]string{"session": key})
}

func (h *LibraryHandler) getTracks(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tracks, err := engine.GetAllTracks()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tracks)
}

func (h *LibraryHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, fmt.Errorf("%w: path", shared.ErrMissingArgument))
		return
	}
	tracks, err := engine.GetPlaylistTracks(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tracks)
}

func (h *LibraryHandler) getComments(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	comments, err := engine.GetUniqueComments()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"comments": comments,
		"report":   collection.CategorizeComments(comments),
	})
}

func (h *LibraryHandler) createFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParentPath string `json:"parentPath"`
		Name       string `json:"name"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := engine.CreateFolder(r.Context(), req.ParentPath, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"path": path})
}

func (h *LibraryHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderPath string `json:"folderPath"`
		Name       string `json:"name"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := engine.CreatePlaylist(r.Context(), req.FolderPath, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"path": path})
}

func (h *LibraryHandler) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := engine.RenamePlaylist(r.Context(), req.Path, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"path": path})
}

func (h *LibraryHandler) movePlaylist(w http.ResponseWriter, r *http.Request) {
	var req collection.MoveRequest
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := engine.MovePlaylist(r.Context(), req.SourcePath, req.TargetPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"path": path})
}

// moveItemResponse is the JSON view of one batch move result.
type moveItemResponse struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

func (h *LibraryHandler) movePlaylistBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Moves []collection.MoveRequest `json:"moves"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, succeeded, err := engine.MovePlaylistBatch(r.Context(), req.Moves)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]moveItemResponse, len(results))
	for i, res := range results {
		items[i] = moveItemResponse{
			SourcePath: res.SourcePath,
			TargetPath: res.TargetPath,
			OK:         res.Err == nil,
		}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		}
	}
	writeData(w, http.StatusOK, map[string]any{
		"results":      items,
		"successCount": succeeded,
	})
}

func (h *LibraryHandler) duplicatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourcePath string `json:"sourcePath"`
		TargetPath string `json:"targetPath"`
		Name       string `json:"name"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := engine.DuplicatePlaylist(r.Context(), req.SourcePath, req.TargetPath, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"path": path})
}

func (h *LibraryHandler) createOrphans(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetPath string `json:"targetPath"`
		Name       string `json:"name"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, created, err := engine.CreateOrphansPlaylist(r.Context(), req.TargetPath, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"created": created, "path": path})
}

func (h *LibraryHandler) deleteNodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paths []string `json:"paths"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	deleted, err := engine.DeleteNodes(r.Context(), req.Paths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *LibraryHandler) updateTrack(w http.ResponseWriter, r *http.Request) {
	var req collection.TrackUpdateRequest
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := engine.UpdateTrack(r.Context(), req.Key, req.Update); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": req.Key})
}

// trackItemResponse is the JSON view of one batch track update result.
type trackItemResponse struct {
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (h *LibraryHandler) updateTracksBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []collection.TrackUpdateRequest `json:"updates"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, succeeded, err := engine.UpdateTracksBatch(r.Context(), req.Updates)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]trackItemResponse, len(results))
	for i, res := range results {
		items[i] = trackItemResponse{Key: res.Key, OK: res.Err == nil}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		}
	}
	writeData(w, http.StatusOK, map[string]any{
		"results":      items,
		"successCount": succeeded,
	})
}

func (h *LibraryHandler) updateComments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldComments []string `json:"oldComments"`
		NewComment  string   `json:"newComment"`
	}
	engine, err := h.engine(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	changed, err := engine.UpdateCommentsBatch(r.Context(), req.OldComments, req.NewComment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"updated": changed})
}

// matchTrack is the wire shape of one descriptor in a match request.
type matchTrack struct {
	ID     string `json:"id"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (h *LibraryHandler) match(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source    []matchTrack `json:"source"`
		Target    []matchTrack `json:"target"`
		Threshold int          `json:"threshold"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	source := make([]matching.Descriptor, len(req.Source))
	for i, t := range req.Source {
		source[i] = matching.NewDescriptor(t.ID, t.Artist, t.Title)
	}
	target := make([]matching.Descriptor, len(req.Target))
	for i, t := range req.Target {
		target[i] = matching.NewDescriptor(t.ID, t.Artist, t.Title)
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = h.threshold
	}
	writeData(w, http.StatusOK, matching.Match(source, target, threshold))
}
