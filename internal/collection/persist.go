package collection

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"cratedex/internal/shared"
)

// DocumentSource fetches the raw document bytes backing an engine.
type DocumentSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// BytesSource serves a document held in memory, for transient sessions
// where the caller supplied the bytes directly.
type BytesSource []byte

func (s BytesSource) Fetch(context.Context) ([]byte, error) { return s, nil }

// Persister writes the serialized document through to durable storage
// after a mutation and reports where it landed.
type Persister interface {
	Persist(ctx context.Context, ownerID string, data []byte) (location string, err error)
}

// BlobStore is the blob collaborator contract: overwrite semantics, no
// versioning. Put returns the blob's addressable location.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// PointerStore is the pointer-record collaborator contract: a
// single-field upsert keyed by owner identity.
type PointerStore interface {
	Update(ctx context.Context, ownerID, documentLocation string) error
}

// DurablePersister serializes write-throughs to a blob store and then
// updates the owner's pointer record. The two writes are not atomic: a
// crash between them leaves the pointer referencing the previous blob
// content. That window is accepted, not repaired.
type DurablePersister struct {
	blobs    BlobStore
	pointers PointerStore
	logger   *log.Logger
}

// NewDurablePersister creates a DurablePersister over the two storage
// collaborators.
func NewDurablePersister(blobs BlobStore, pointers PointerStore, logger *log.Logger) *DurablePersister {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DurablePersister{blobs: blobs, pointers: pointers, logger: logger}
}

// Persist overwrites the owner's document blob and repoints the owner
// record at it.
func (p *DurablePersister) Persist(ctx context.Context, ownerID string, data []byte) (string, error) {
	key := fmt.Sprintf("collections/%s.xml", ownerID)

	location, err := p.blobs.Put(ctx, key, data, "application/xml")
	if err != nil {
		return "", fmt.Errorf("%w: blob write: %v", shared.ErrPersistence, err)
	}

	if err := p.pointers.Update(ctx, ownerID, location); err != nil {
		return "", fmt.Errorf("%w: pointer update: %v", shared.ErrPersistence, err)
	}

	p.logger.Debug("persisted collection", "owner", ownerID, "location", location, "bytes", len(data))
	return location, nil
}

// TransientPersister is the in-memory mode: mutations touch no external
// storage, the in-memory tree already is the source of truth.
type TransientPersister struct{}

func (TransientPersister) Persist(context.Context, string, []byte) (string, error) {
	return "", nil
}
