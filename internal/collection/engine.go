package collection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cratedex/internal/models"
	"cratedex/internal/nml"
	"cratedex/internal/shared"
)

// Mode selects whether an engine writes through to durable storage or
// lives purely in memory. Fixed at construction.
type Mode string

const (
	ModeDurable   Mode = "durable"
	ModeTransient Mode = "transient"
)

// Options configures a new Engine.
type Options struct {
	Owner     string
	Mode      Mode
	Source    DocumentSource
	Persister Persister
	Codec     *nml.Codec
	Logger    *log.Logger
	Now       func() time.Time
}

// Engine holds one user's collection: the node tree, the flat catalog,
// and the derived indices over both. All exported methods serialize
// behind the engine mutex; concurrent mutation would corrupt the
// count/children invariant.
type Engine struct {
	mu sync.Mutex

	owner     string
	mode      Mode
	source    DocumentSource
	persister Persister
	codec     *nml.Codec
	logger    *log.Logger
	now       func() time.Time

	lib      *models.Library
	original []byte // document bytes matching the in-memory tree, nil when stale
	loaded   bool
	loading  chan struct{} // non-nil while a load is in flight
	loadErr  error

	indexDirty bool
	pathIndex  map[string]*models.NodeRef
	uidPaths   map[uint64]string
	sidebar    *models.SidebarNode
	trackIndex map[string]*models.TrackEntry
}

// NewEngine creates an engine. Transient engines default to a
// TransientPersister; durable engines must be given a Persister and a
// Source.
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Codec == nil {
		opts.Codec = nml.NewCodec(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = ModeDurable
	}
	if opts.Persister == nil {
		opts.Persister = TransientPersister{}
	}
	return &Engine{
		owner:      opts.Owner,
		mode:       opts.Mode,
		source:     opts.Source,
		persister:  opts.Persister,
		codec:      opts.Codec,
		logger:     opts.Logger.With("owner", opts.Owner),
		now:        opts.Now,
		indexDirty: true,
	}
}

// Owner returns the owning user identifier.
func (e *Engine) Owner() string { return e.owner }

// Mode returns the durability mode fixed at construction.
func (e *Engine) Mode() Mode { return e.mode }

// Load fetches and parses the backing document exactly once. It is
// idempotent and re-entrant: a concurrent call while a load is in flight
// waits for that load instead of starting a second parse, and a failed
// load caches nothing, so a later call starts fresh.
//
// An unreachable document source is not fatal: it is logged and the
// engine starts with an empty collection the caller can re-supply.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.loaded {
		e.mu.Unlock()
		return nil
	}
	if e.loading != nil {
		ch := e.loading
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		err := e.loadErr
		e.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	e.loading = ch
	e.mu.Unlock()

	lib, original, err := e.fetchAndParse(ctx)

	e.mu.Lock()
	e.loading = nil
	e.loadErr = err
	if err == nil {
		e.lib = lib
		e.original = original
		e.loaded = true
		e.indexDirty = true
		e.trackIndex = nil
	}
	e.mu.Unlock()
	close(ch)
	return err
}

func (e *Engine) fetchAndParse(ctx context.Context) (*models.Library, []byte, error) {
	if e.source == nil {
		return models.NewLibrary(), nil, nil
	}

	data, err := e.source.Fetch(ctx)
	if err != nil {
		e.logger.Warn("document source unavailable, starting empty", "err", err)
		return models.NewLibrary(), nil, nil
	}

	lib, err := e.codec.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return lib, data, nil
}

// GetDocument returns the serialized collection document. If nothing has
// mutated since the last load or persist, the original bytes come back
// verbatim; serialization is not byte-stable across library versions, so
// skipping the round trip is a correctness requirement, not a shortcut.
func (e *Engine) GetDocument(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireLoaded(); err != nil {
		return nil, err
	}

	if e.original != nil {
		return e.original, nil
	}

	data, err := e.codec.Serialize(e.lib)
	if err != nil {
		return nil, err
	}
	e.original = data
	return data, nil
}

func (e *Engine) requireLoaded() error {
	if !e.loaded {
		return fmt.Errorf("%w: call Load first", shared.ErrNotLoaded)
	}
	return nil
}

// invalidate drops every derived cache. A node's path is a function of
// its position in the tree, so any shape change voids the whole index.
func (e *Engine) invalidate() {
	e.indexDirty = true
	e.pathIndex = nil
	e.uidPaths = nil
	e.sidebar = nil
	e.trackIndex = nil
	e.original = nil
}

// finish is the single funnel point every mutation ends in: invalidate
// derived caches, serialize, write through, and cache the fresh bytes as
// the new original so an unmodified read stays verbatim.
//
// On persistence failure the in-memory tree keeps the applied change;
// re-issuing the same mutation is safe.
func (e *Engine) finish(ctx context.Context) error {
	e.invalidate()

	data, err := e.codec.Serialize(e.lib)
	if err != nil {
		return err
	}

	if _, err := e.persister.Persist(ctx, e.owner, data); err != nil {
		return err
	}

	e.original = data
	return nil
}
