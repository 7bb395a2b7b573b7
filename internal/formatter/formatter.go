// package formatter renders collection data for the CLI: the sidebar
// tree as indented text, comment reports, match reports, and CSV track
// exports.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"cratedex/internal/collection"
	"cratedex/internal/matching"
	"cratedex/internal/models"
)

// SidebarToText renders the sidebar tree, one node per line, indented by
// depth. Folders show child and playlist counts, playlists their size.
func SidebarToText(root *models.SidebarNode) string {
	var buf bytes.Buffer
	writeSidebarNode(&buf, root)
	return buf.String()
}

func writeSidebarNode(buf *bytes.Buffer, node *models.SidebarNode) {
	indent := strings.Repeat("  ", node.Depth)
	if node.Type == models.NodeFolder {
		fmt.Fprintf(buf, "%s%s/ (%d playlists, %d tracks)\n",
			indent, node.Name, node.PlaylistCount, node.TrackCount)
		for _, child := range node.Children {
			writeSidebarNode(buf, child)
		}
		return
	}
	fmt.Fprintf(buf, "%s%s (%d)\n", indent, node.Name, node.Size)
}

// TracksToCSV converts catalog entries to CSV with columns: Key, Title,
// Artist, Album, BPM, Genre, Comment.
func TracksToCSV(tracks []*models.TrackEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Title", "Artist", "Album", "BPM", "Genre", "Comment"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		bpm := ""
		if track.BPM != 0 {
			bpm = strconv.FormatFloat(track.BPM, 'f', -1, 64)
		}
		record := []string{
			track.Key(),
			track.Title,
			track.Artist,
			track.Album,
			bpm,
			track.Genre,
			track.Comment,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CommentReportToText renders a categorized comment report, one section
// per non-empty bucket.
func CommentReportToText(report *collection.CommentReport) string {
	var buf bytes.Buffer

	writeBucket(&buf, "Key/Tempo", report.TempoKey)
	writeBucket(&buf, "Genre", report.Genre)
	writeBucket(&buf, "URL", report.URL)
	writeBucket(&buf, "Hex", report.Hex)

	if len(report.Combinations) > 0 {
		fmt.Fprintf(&buf, "Combinations (%d)\n", len(report.Combinations))
		for _, combo := range report.Combinations {
			fmt.Fprintf(&buf, "  %s [%s]\n", combo.Comment, strings.Join(combo.Categories, ", "))
		}
		buf.WriteByte('\n')
	}

	writeBucket(&buf, "Other", report.Other)
	return buf.String()
}

func writeBucket(buf *bytes.Buffer, title string, comments []string) {
	if len(comments) == 0 {
		return
	}
	fmt.Fprintf(buf, "%s (%d)\n", title, len(comments))
	for _, c := range comments {
		fmt.Fprintf(buf, "  %s\n", c)
	}
	buf.WriteByte('\n')
}

// MatchResultToText renders a match partition: accepted pairs with their
// scores, then each side's leftovers.
func MatchResultToText(result *matching.Result) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Matched: %d, missing in target: %d, extra in target: %d\n\n",
		result.MatchedCount, result.MissingCount, result.ExtraCount)

	for _, pair := range result.Matches {
		tag := "fuzzy"
		if pair.Exact {
			tag = "exact"
		}
		fmt.Fprintf(&buf, "  [%3d %s] %s - %s  =>  %s - %s\n",
			pair.Score, tag,
			pair.Source.OriginalArtist, pair.Source.OriginalTitle,
			pair.Target.OriginalArtist, pair.Target.OriginalTitle)
	}

	if len(result.MissingInTarget) > 0 {
		buf.WriteString("\nMissing in target:\n")
		for _, d := range result.MissingInTarget {
			fmt.Fprintf(&buf, "  %s - %s\n", d.OriginalArtist, d.OriginalTitle)
		}
	}
	if len(result.MissingInSource) > 0 {
		buf.WriteString("\nExtra in target:\n")
		for _, d := range result.MissingInSource {
			fmt.Fprintf(&buf, "  %s - %s\n", d.OriginalArtist, d.OriginalTitle)
		}
	}
	return buf.String()
}
