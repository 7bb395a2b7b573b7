// Package matching decides whether two track descriptors from
// independent catalogs denote the same recording, and computes the
// symmetric difference between two catalogs.
//
// The comparison is textual only: artist and title strings are
// normalized, scored with a weighted Levenshtein similarity, and accepted
// above a confidence threshold. No audio analysis is involved.
package matching

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum accepted confidence score.
const DefaultThreshold = 70

// Descriptor is a normalized artist/title pair with the originals kept
// for reporting.
type Descriptor struct {
	ID             string `json:"id"`
	Artist         string `json:"artist"`
	Title          string `json:"title"`
	OriginalArtist string `json:"originalArtist"`
	OriginalTitle  string `json:"originalTitle"`
}

// Pair is one accepted match between a source and a target descriptor.
type Pair struct {
	Source Descriptor `json:"source"`
	Target Descriptor `json:"target"`
	Score  int        `json:"score"`
	Exact  bool       `json:"exact"`
}

// Result partitions two catalogs: accepted pairs, source tracks with no
// accepted target, and target tracks never claimed by any source match.
type Result struct {
	Matches         []Pair       `json:"matches"`
	MissingInTarget []Descriptor `json:"missingInTarget"`
	MissingInSource []Descriptor `json:"missingInSource"`
	MatchedCount    int          `json:"matchedCount"`
	MissingCount    int          `json:"missingCount"`
	ExtraCount      int          `json:"extraCount"`
}

var (
	parenPattern   = regexp.MustCompile(`\([^()]*\)`)
	bracketPattern = regexp.MustCompile(`\[[^\[\]]*\]`)
	featPattern    = regexp.MustCompile(`\b(feat\.?|ft\.?|featuring)\b.*$`)
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Normalize reduces a free-text artist or title to its comparable core:
// lowercase, parenthesized and bracketed content removed (repeatedly, to
// handle nesting), featuring credits cut, punctuation stripped,
// whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(s)

	for {
		next := parenPattern.ReplaceAllString(s, " ")
		next = bracketPattern.ReplaceAllString(next, " ")
		if next == s {
			break
		}
		s = next
	}

	s = featPattern.ReplaceAllString(s, " ")
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NewDescriptor builds a Descriptor from raw metadata.
func NewDescriptor(id, artist, title string) Descriptor {
	return Descriptor{
		ID:             id,
		Artist:         Normalize(artist),
		Title:          Normalize(title),
		OriginalArtist: artist,
		OriginalTitle:  title,
	}
}

// similarity is 100 × (1 − editDistance/longerLength), in percent.
func similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longer))
}

// Score rates the confidence (0-100) that two descriptors denote the
// same recording. Exact normalized equality scores 100 outright.
// Otherwise title similarity weighs 0.6 and artist similarity 0.4
// (titles discriminate better than artist names), with a +10 bonus per
// field when one normalized string contains the other, capped at 100.
func Score(a, b Descriptor) int {
	if a.Artist == b.Artist && a.Title == b.Title {
		return 100
	}

	titleSim := similarity(a.Title, b.Title)
	artistSim := similarity(a.Artist, b.Artist)
	score := 0.6*titleSim + 0.4*artistSim

	if contains(a.Artist, b.Artist) {
		score += 10
	}
	if contains(a.Title, b.Title) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(score)
}

func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Match partitions source against target. For each source descriptor the
// single best-scoring target is kept (greedy, first candidate reaching
// the maximum wins, no global reassignment) and accepted when its score
// reaches the threshold. A threshold of 0 or below falls back to
// DefaultThreshold. Target descriptors claimed by no accepted match are
// reported missing from the source side.
func Match(source, target []Descriptor, threshold int) *Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	result := &Result{}
	claimed := make([]bool, len(target))

	for _, src := range source {
		bestIdx := -1
		bestScore := -1
		for i, tgt := range target {
			score := Score(src, tgt)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 && bestScore >= threshold {
			tgt := target[bestIdx]
			claimed[bestIdx] = true
			result.Matches = append(result.Matches, Pair{
				Source: src,
				Target: tgt,
				Score:  bestScore,
				Exact:  src.Artist == tgt.Artist && src.Title == tgt.Title,
			})
		} else {
			result.MissingInTarget = append(result.MissingInTarget, src)
		}
	}

	for i, tgt := range target {
		if !claimed[i] {
			result.MissingInSource = append(result.MissingInSource, tgt)
		}
	}

	result.MatchedCount = len(result.Matches)
	result.MissingCount = len(result.MissingInTarget)
	result.ExtraCount = len(result.MissingInSource)
	return result
}
