package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"cratedex/internal/collection"
	"cratedex/internal/matching"
	"cratedex/internal/nml"
	"cratedex/internal/sessions"
	"cratedex/internal/shared"
	"cratedex/internal/storage"
)

// LibraryHandler serves the collection engine operations over HTTP.
// Durable engines are resolved per owner through the session manager;
// transient engines are created by uploading a document and addressed by
// the returned session key.
type LibraryHandler struct {
	sessions  *sessions.Manager
	blobs     *storage.FileBlobStore
	pointers  *storage.PointerRepository
	codec     *nml.Codec
	logger    *log.Logger
	threshold int
}

// LibraryHandlerOpts configures a LibraryHandler.
type LibraryHandlerOpts struct {
	Sessions  *sessions.Manager
	Blobs     *storage.FileBlobStore
	Pointers  *storage.PointerRepository
	Codec     *nml.Codec
	Logger    *log.Logger
	Threshold int
}

// NewLibraryHandler creates a LibraryHandler.
func NewLibraryHandler(opts LibraryHandlerOpts) *LibraryHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Codec == nil {
		opts.Codec = nml.NewCodec(opts.Logger)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = matching.DefaultThreshold
	}
	return &LibraryHandler{
		sessions:  opts.Sessions,
		blobs:     opts.Blobs,
		pointers:  opts.Pointers,
		codec:     opts.Codec,
		logger:    opts.Logger,
		threshold: opts.Threshold,
	}
}

// Routes returns the patterns this handler serves.
func (h *LibraryHandler) Routes() []string {
	return []string{
		"GET /library/sidebar",
		"GET /library/document",
		"PUT /library/document",
		"GET /library/tracks",
		"GET /library/playlist",
		"GET /library/comments",
		"POST /library/folders",
		"POST /library/playlists",
		"POST /library/playlists/rename",
		"POST /library/playlists/move",
		"POST /library/playlists/move-batch",
		"POST /library/playlists/duplicate",
		"POST /library/playlists/orphans",
		"POST /library/nodes/delete",
		"POST /library/tracks/update",
		"POST /library/tracks/update-batch",
		"POST /library/comments/update",
		"POST /match",
	}
}

// ServeHTTP dispatches to the operation handlers.
func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/library/sidebar":
		h.getSidebar(w, r)
	case "/library/document":
		if r.Method == http.MethodPut {
			h.putDocument(w, r)
		} else {
			h.getDocument(w, r)
		}
	case "/library/tracks":
		h.getTracks(w, r)
	case "/library/playlist":
		h.getPlaylist(w, r)
	case "/library/comments":
		h.getComments(w, r)
	case "/library/folders":
		h.createFolder(w, r)
	case "/library/playlists":
		h.createPlaylist(w, r)
	case "/library/playlists/rename":
		h.renamePlaylist(w, r)
	case "/library/playlists/move":
		h.movePlaylist(w, r)
	case "/library/playlists/move-batch":
		h.movePlaylistBatch(w, r)
	case "/library/playlists/duplicate":
		h.duplicatePlaylist(w, r)
	case "/library/playlists/orphans":
		h.createOrphans(w, r)
	case "/library/nodes/delete":
		h.deleteNodes(w, r)
	case "/library/tracks/update":
		h.updateTrack(w, r)
	case "/library/tracks/update-batch":
		h.updateTracksBatch(w, r)
	case "/library/comments/update":
		h.updateComments(w, r)
	case "/match":
		h.match(w, r)
	default:
		http.NotFound(w, r)
	}
}

// engine resolves the request's engine: a transient session when the
// "session" parameter is present, otherwise the owner's durable engine,
// built and loaded on first use.
func (h *LibraryHandler) engine(r *http.Request) (*collection.Engine, error) {
	if session := r.URL.Query().Get("session"); session != "" {
		return h.sessions.Get(r.Context(), session, expiredSession)
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		return nil, fmt.Errorf("%w: owner", shared.ErrMissingArgument)
	}
	return h.sessions.Get(r.Context(), owner, h.buildDurable)
}

// expiredSession is the builder for transient keys: a miss means the
// session was evicted or never created, and only the caller can
// re-supply the document.
func expiredSession(_ context.Context, key string) (*collection.Engine, error) {
	return nil, fmt.Errorf("%w: %s", shared.ErrSessionExpired, key)
}

// buildDurable constructs and loads a durable engine for an owner.
func (h *LibraryHandler) buildDurable(ctx context.Context, owner string) (*collection.Engine, error) {
	engine := collection.NewEngine(collection.Options{
		Owner:     owner,
		Mode:      collection.ModeDurable,
		Source:    storage.NewStoreSource(h.blobs, h.pointers, owner),
		Persister: collection.NewDurablePersister(h.blobs, h.pointers, h.logger),
		Codec:     h.codec,
		Logger:    h.logger,
	})
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

// envelope shapes.

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, err error) {
	code, status := classifyError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": errorBody{Code: code, Message: err.Error()},
	})
}

// classifyError maps the error taxonomy to HTTP statuses.
func classifyError(err error) (string, int) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrTrackNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, shared.ErrTypeMismatch):
		return "type_mismatch", http.StatusConflict
	case errors.Is(err, shared.ErrSessionExpired):
		return "session_expired", http.StatusGone
	case errors.Is(err, shared.ErrUpstreamUnavailable):
		return "upstream_unavailable", http.StatusBadGateway
	case errors.Is(err, shared.ErrPersistence):
		return "persistence_failed", http.StatusBadGateway
	case errors.Is(err, shared.ErrDocumentMalformed):
		return "document_malformed", http.StatusBadRequest
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		return "invalid_input", http.StatusBadRequest
	default:
		return "internal", http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
