// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"cratedex/internal/models"
)

// ManualClock is a settable clock for driving TTL eviction in tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FailingBlobStore always fails Put, for exercising persistence errors.
type FailingBlobStore struct{}

func (FailingBlobStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("blob write failed")
}

// MemoryBlobStore records Put calls in memory.
type MemoryBlobStore struct {
	mu    sync.Mutex
	Blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{Blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Blobs[key] = append([]byte(nil), data...)
	return "mem://" + key, nil
}

// MemoryPointerStore records pointer updates in memory.
type MemoryPointerStore struct {
	mu       sync.Mutex
	Pointers map[string]string
}

func NewMemoryPointerStore() *MemoryPointerStore {
	return &MemoryPointerStore{Pointers: make(map[string]string)}
}

func (s *MemoryPointerStore) Update(_ context.Context, ownerID, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pointers[ownerID] = location
	return nil
}

// FailingPointerStore always fails Update.
type FailingPointerStore struct{}

func (FailingPointerStore) Update(context.Context, string, string) error {
	return errors.New("pointer update failed")
}

// Entry builds a catalog entry with the given location and metadata.
func Entry(volume, dir, file, artist, title string) *models.TrackEntry {
	return &models.TrackEntry{
		Volume: volume,
		Dir:    dir,
		File:   file,
		Artist: artist,
		Title:  title,
	}
}

// FixtureLibrary builds a small library shared by the engine tests:
//
//	$ROOT
//	├── House (folder)
//	│   ├── Deep (playlist: tracks 1, 2)
//	│   └── Tech (playlist: track 3)
//	└── Inbox (playlist: track 1)
//
// The catalog holds four entries; the fourth is referenced by no
// playlist.
func FixtureLibrary() *models.Library {
	t1 := Entry("VOL1", "/Music/", "one.mp3", "Daft Punk", "One More Time")
	t2 := Entry("VOL1", "/Music/", "two.mp3", "Moderat", "A New Error")
	t3 := Entry("VOL1", "/Music/", "three.mp3", "Rone", "Bye Bye Macadam")
	t4 := Entry("VOL1", "/Music/", "four.mp3", "Bicep", "Glue")

	deep := models.NewPlaylist("Deep", "id-deep")
	deep.Entries = []*models.TrackEntry{t1, t2}
	tech := models.NewPlaylist("Tech", "id-tech")
	tech.Entries = []*models.TrackEntry{t3}
	inbox := models.NewPlaylist("Inbox", "id-inbox")
	inbox.Entries = []*models.TrackEntry{t1}

	house := models.NewFolder("House")
	house.Children = []*models.RawNode{deep, tech}
	house.SyncCount()

	root := models.NewFolder("$ROOT")
	root.Children = []*models.RawNode{house, inbox}
	root.SyncCount()

	return &models.Library{
		Root:    root,
		Catalog: []*models.TrackEntry{t1, t2, t3, t4},
	}
}
