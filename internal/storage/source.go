package storage

import (
	"context"
	"fmt"

	"cratedex/internal/shared"
)

// StoreSource fetches an owner's document by following the pointer record
// to the blob store. It implements collection.DocumentSource.
type StoreSource struct {
	blobs    *FileBlobStore
	pointers *PointerRepository
	ownerID  string
}

// NewStoreSource creates a source for one owner.
func NewStoreSource(blobs *FileBlobStore, pointers *PointerRepository, ownerID string) *StoreSource {
	return &StoreSource{blobs: blobs, pointers: pointers, ownerID: ownerID}
}

// Fetch resolves the owner's pointer and reads the blob it names. A
// missing pointer or unreadable blob surfaces as ErrUpstreamUnavailable;
// the engine treats that as "no collection yet" rather than a crash.
func (s *StoreSource) Fetch(ctx context.Context) ([]byte, error) {
	location, err := s.pointers.Get(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: no document for owner %s", shared.ErrUpstreamUnavailable, s.ownerID)
	}

	data, err := s.blobs.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	return data, nil
}
