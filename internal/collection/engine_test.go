package collection

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"cratedex/internal/nml"
	"cratedex/internal/shared"
	tu "cratedex/internal/testing"
)

// fixtureDocument serializes the shared fixture library into document bytes.
func fixtureDocument(t *testing.T) []byte {
	t.Helper()
	codec := nml.NewCodec(shared.NewLogger(io.Discard))
	data, err := codec.Serialize(tu.FixtureLibrary())
	if err != nil {
		t.Fatalf("failed to serialize fixture: %v", err)
	}
	return data
}

// newTestEngine builds and loads a transient engine over the fixture document.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(Options{
		Owner:  "tester",
		Mode:   ModeTransient,
		Source: BytesSource(fixtureDocument(t)),
		Logger: shared.NewLogger(io.Discard),
	})
	if err := engine.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return engine
}

// failingSource always fails Fetch.
type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]byte, error) {
	return nil, errors.New("source down")
}

// failingPersister always fails Persist.
type failingPersister struct{}

func (failingPersister) Persist(context.Context, string, []byte) (string, error) {
	return "", shared.ErrPersistence
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		engine := newTestEngine(t)
		if err := engine.Load(ctx); err != nil {
			t.Fatalf("second Load failed: %v", err)
		}
		tracks, err := engine.GetAllTracks()
		if err != nil {
			t.Fatalf("GetAllTracks failed: %v", err)
		}
		if len(tracks) != 4 {
			t.Errorf("expected 4 catalog entries, got %d", len(tracks))
		}
	})

	t.Run("operations before Load fail", func(t *testing.T) {
		engine := NewEngine(Options{Owner: "tester", Mode: ModeTransient})
		if _, err := engine.GetSidebar(); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
		if _, err := engine.GetAllTracks(); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
	})

	t.Run("unavailable source starts empty", func(t *testing.T) {
		engine := NewEngine(Options{
			Owner:  "tester",
			Source: failingSource{},
			Logger: shared.NewLogger(io.Discard),
		})
		if err := engine.Load(ctx); err != nil {
			t.Fatalf("Load should tolerate an unavailable source, got %v", err)
		}
		sidebar, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}
		if sidebar.Name != "$ROOT" || len(sidebar.Children) != 0 {
			t.Errorf("expected an empty root, got %+v", sidebar)
		}
	})

	t.Run("malformed document fails and caches nothing", func(t *testing.T) {
		engine := NewEngine(Options{
			Owner:  "tester",
			Mode:   ModeTransient,
			Source: BytesSource("<LIBRARY><COLLECT"),
			Logger: shared.NewLogger(io.Discard),
		})
		if err := engine.Load(ctx); !errors.Is(err, shared.ErrDocumentMalformed) {
			t.Fatalf("expected ErrDocumentMalformed, got %v", err)
		}
		if _, err := engine.GetAllTracks(); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("failed load should leave engine unloaded, got %v", err)
		}
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("verbatim bytes when unmodified", func(t *testing.T) {
		original := fixtureDocument(t)
		engine := NewEngine(Options{
			Owner:  "tester",
			Mode:   ModeTransient,
			Source: BytesSource(original),
			Logger: shared.NewLogger(io.Discard),
		})
		if err := engine.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		data, err := engine.GetDocument(ctx)
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		if !bytes.Equal(data, original) {
			t.Error("unmodified document should come back verbatim")
		}
	})

	t.Run("reflects mutations", func(t *testing.T) {
		engine := newTestEngine(t)
		sidebar, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}

		if _, err := engine.CreateFolder(ctx, sidebar.Path, "Fresh Crate"); err != nil {
			t.Fatalf("CreateFolder failed: %v", err)
		}

		data, err := engine.GetDocument(ctx)
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		if !strings.Contains(string(data), "Fresh Crate") {
			t.Error("expected mutated document to contain the new folder")
		}

		// A repeated read without further mutation is stable.
		again, err := engine.GetDocument(ctx)
		if err != nil {
			t.Fatalf("second GetDocument failed: %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Error("repeated reads between mutations should be identical")
		}
	})
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("durable mutations write through", func(t *testing.T) {
		blobs := tu.NewMemoryBlobStore()
		pointers := tu.NewMemoryPointerStore()
		engine := NewEngine(Options{
			Owner:     "alice",
			Mode:      ModeDurable,
			Source:    BytesSource(fixtureDocument(t)),
			Persister: NewDurablePersister(blobs, pointers, shared.NewLogger(io.Discard)),
			Logger:    shared.NewLogger(io.Discard),
		})
		if err := engine.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		sidebar, _ := engine.GetSidebar()

		if _, err := engine.CreateFolder(ctx, sidebar.Path, "Synced"); err != nil {
			t.Fatalf("CreateFolder failed: %v", err)
		}

		blob, ok := blobs.Blobs["collections/alice.xml"]
		if !ok {
			t.Fatal("expected a blob write for the owner")
		}
		if !strings.Contains(string(blob), "Synced") {
			t.Error("persisted blob missing the mutation")
		}
		if pointers.Pointers["alice"] != "mem://collections/alice.xml" {
			t.Errorf("unexpected pointer location: %s", pointers.Pointers["alice"])
		}
	})

	t.Run("persist failure keeps the in-memory change", func(t *testing.T) {
		engine := NewEngine(Options{
			Owner:     "alice",
			Mode:      ModeDurable,
			Source:    BytesSource(fixtureDocument(t)),
			Persister: failingPersister{},
			Logger:    shared.NewLogger(io.Discard),
		})
		if err := engine.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		sidebar, _ := engine.GetSidebar()

		if _, err := engine.CreateFolder(ctx, sidebar.Path, "Unsynced"); !errors.Is(err, shared.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}

		sidebar, err := engine.GetSidebar()
		if err != nil {
			t.Fatalf("GetSidebar failed: %v", err)
		}
		if sidebar.Children[0].Name != "Unsynced" {
			t.Error("failed persist should not roll back the in-memory tree")
		}
	})

	t.Run("blob write failure surfaces as persistence error", func(t *testing.T) {
		persister := NewDurablePersister(tu.FailingBlobStore{}, tu.NewMemoryPointerStore(), shared.NewLogger(io.Discard))
		if _, err := persister.Persist(ctx, "alice", []byte("<LIBRARY/>")); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("pointer update failure surfaces as persistence error", func(t *testing.T) {
		persister := NewDurablePersister(tu.NewMemoryBlobStore(), tu.FailingPointerStore{}, shared.NewLogger(io.Discard))
		if _, err := persister.Persist(ctx, "alice", []byte("<LIBRARY/>")); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})
}
