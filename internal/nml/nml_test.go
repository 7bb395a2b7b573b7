package nml

import (
	"io"
	"strings"
	"testing"

	"cratedex/internal/models"
	"cratedex/internal/shared"
	tu "cratedex/internal/testing"
)

func newTestCodec() *Codec {
	return NewCodec(shared.NewLogger(io.Discard))
}

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<LIBRARY VERSION="1.0">
  <COLLECTION ENTRIES="2">
    <TRACK VOLUME="VOL1" DIR="/Music/" FILE="one.mp3" TITLE="One More Time" ARTIST="Daft Punk" BPM="123.04" GENRE="House" COMMENT="4A - 128" IMPORT_DATE="2024/3/15"></TRACK>
    <TRACK VOLUME="VOL1" DIR="/Music/" FILE="two.mp3" TITLE="A New Error" ARTIST="Moderat"></TRACK>
  </COLLECTION>
  <PLAYLISTS>
    <NODE TYPE="FOLDER" NAME="$ROOT" COUNT="1">
      <NODE TYPE="PLAYLIST" NAME="Warmup" UUID="id-warmup">
        <ENTRY TYPE="KEY" KEY="VOL1/Music/one.mp3"></ENTRY>
        <ENTRY TYPE="KEY" KEY="VOL1/Music/two.mp3"></ENTRY>
      </NODE>
    </NODE>
  </PLAYLISTS>
</LIBRARY>`

func TestParse(t *testing.T) {
	codec := newTestCodec()

	t.Run("catalog and tree", func(t *testing.T) {
		lib, err := codec.Parse([]byte(sampleDocument))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if len(lib.Catalog) != 2 {
			t.Fatalf("expected 2 catalog entries, got %d", len(lib.Catalog))
		}
		first := lib.Catalog[0]
		if first.Title != "One More Time" || first.Artist != "Daft Punk" {
			t.Errorf("unexpected first entry: %+v", first)
		}
		if first.BPM != 123.04 {
			t.Errorf("expected BPM 123.04, got %v", first.BPM)
		}
		if first.Comment != "4A - 128" {
			t.Errorf("expected comment preserved, got '%s'", first.Comment)
		}
		if first.ImportDate.IsZero() {
			t.Error("expected import date parsed")
		}

		if !lib.Root.IsFolder() || lib.Root.Name != "$ROOT" {
			t.Fatalf("unexpected root: %+v", lib.Root)
		}
		if len(lib.Root.Children) != 1 {
			t.Fatalf("expected 1 root child, got %d", len(lib.Root.Children))
		}
		playlist := lib.Root.Children[0]
		if !playlist.IsPlaylist() || playlist.Name != "Warmup" || playlist.ID != "id-warmup" {
			t.Errorf("unexpected playlist node: %+v", playlist)
		}
		if len(playlist.Entries) != 2 {
			t.Fatalf("expected 2 playlist entries, got %d", len(playlist.Entries))
		}
	})

	t.Run("entries share catalog pointers", func(t *testing.T) {
		lib, err := codec.Parse([]byte(sampleDocument))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		playlist := lib.Root.Children[0]
		if playlist.Entries[0] != lib.Catalog[0] {
			t.Error("playlist entry should be the same pointer as the catalog entry")
		}

		// An edit through the catalog must be visible through the playlist.
		lib.Catalog[0].Title = "Edited"
		if playlist.Entries[0].Title != "Edited" {
			t.Error("catalog edit not visible through playlist reference")
		}
	})

	t.Run("unknown entry keys are dropped", func(t *testing.T) {
		doc := strings.Replace(sampleDocument, `KEY="VOL1/Music/two.mp3"`, `KEY="VOL9/Nowhere/ghost.mp3"`, 1)
		lib, err := codec.Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		playlist := lib.Root.Children[0]
		if len(playlist.Entries) != 1 {
			t.Errorf("expected unknown reference dropped, got %d entries", len(playlist.Entries))
		}
	})

	t.Run("duplicate catalog keys keep the first", func(t *testing.T) {
		dup := `<TRACK VOLUME="VOL1" DIR="/Music/" FILE="one.mp3" TITLE="Duplicate"></TRACK>`
		doc := strings.Replace(sampleDocument, "</COLLECTION>", dup+"</COLLECTION>", 1)
		lib, err := codec.Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(lib.Catalog) != 2 {
			t.Fatalf("expected duplicate dropped, got %d entries", len(lib.Catalog))
		}
		if lib.Catalog[0].Title != "One More Time" {
			t.Errorf("expected the first occurrence kept, got '%s'", lib.Catalog[0].Title)
		}
	})

	t.Run("playlist root is malformed", func(t *testing.T) {
		doc := `<LIBRARY><COLLECTION ENTRIES="0"></COLLECTION><PLAYLISTS><NODE TYPE="PLAYLIST" NAME="Solo"></NODE></PLAYLISTS></LIBRARY>`
		if _, err := codec.Parse([]byte(doc)); err == nil {
			t.Error("expected error for playlist root")
		}
	})

	t.Run("unknown node type is malformed", func(t *testing.T) {
		doc := strings.Replace(sampleDocument, `TYPE="PLAYLIST"`, `TYPE="SMARTLIST"`, 1)
		if _, err := codec.Parse([]byte(doc)); err == nil {
			t.Error("expected error for unknown node type")
		}
	})

	t.Run("invalid XML is malformed", func(t *testing.T) {
		if _, err := codec.Parse([]byte("<LIBRARY><COLLECT")); err == nil {
			t.Error("expected error for truncated document")
		}
	})

	t.Run("playlist without UUID gets one", func(t *testing.T) {
		doc := strings.Replace(sampleDocument, ` UUID="id-warmup"`, "", 1)
		lib, err := codec.Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if lib.Root.Children[0].ID == "" {
			t.Error("expected a generated playlist identifier")
		}
	})
}

func TestSerialize(t *testing.T) {
	codec := newTestCodec()

	t.Run("round trip preserves semantics", func(t *testing.T) {
		lib := tu.FixtureLibrary()
		data, err := codec.Serialize(lib)
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}

		reparsed, err := codec.Parse(data)
		if err != nil {
			t.Fatalf("reparse failed: %v", err)
		}

		if len(reparsed.Catalog) != len(lib.Catalog) {
			t.Errorf("catalog size changed: %d != %d", len(reparsed.Catalog), len(lib.Catalog))
		}
		if len(reparsed.Root.Children) != len(lib.Root.Children) {
			t.Errorf("root child count changed: %d != %d", len(reparsed.Root.Children), len(lib.Root.Children))
		}

		house := reparsed.Root.Children[0]
		if house.Name != "House" || !house.IsFolder() || house.Count != 2 {
			t.Errorf("unexpected folder after round trip: %+v", house)
		}
		deep := house.Children[0]
		if deep.Name != "Deep" || len(deep.Entries) != 2 {
			t.Errorf("unexpected playlist after round trip: %+v", deep)
		}
		if deep.Entries[0].Artist != "Daft Punk" {
			t.Errorf("entry resolution lost metadata: %+v", deep.Entries[0])
		}
		if deep.ID != "id-deep" {
			t.Errorf("playlist identifier changed: %s", deep.ID)
		}
	})

	t.Run("document shape", func(t *testing.T) {
		lib := tu.FixtureLibrary()
		data, err := codec.Serialize(lib)
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		out := string(data)

		if !strings.HasPrefix(out, "<?xml") {
			t.Error("expected XML header")
		}
		if !strings.Contains(out, `ENTRIES="4"`) {
			t.Errorf("expected catalog entry count attribute, got: %s", out)
		}
		if !strings.Contains(out, `TYPE="FOLDER"`) || !strings.Contains(out, `TYPE="PLAYLIST"`) {
			t.Error("expected both node types in output")
		}
		if !strings.Contains(out, `KEY="VOL1/Music/one.mp3"`) {
			t.Error("expected entry key in output")
		}
	})

	t.Run("nil library rejected", func(t *testing.T) {
		if _, err := codec.Serialize(nil); err == nil {
			t.Error("expected error for nil library")
		}
		if _, err := codec.Serialize(&models.Library{}); err == nil {
			t.Error("expected error for library without root")
		}
	})
}
