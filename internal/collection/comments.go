package collection

import (
	"regexp"
	"sort"
	"strings"
)

// Comment categories. A comment matching two or more lands in the
// combination bucket with its category list; matching none is other.
const (
	CategoryTempoKey    = "tempo_key"
	CategoryGenre       = "genre"
	CategoryURL         = "url"
	CategoryHex         = "hex"
	CategoryCombination = "combination"
	CategoryOther       = "other"
)

// CommentCombo is a comment that matched more than one category.
type CommentCombo struct {
	Comment    string   `json:"comment"`
	Categories []string `json:"categories"`
}

// CommentReport buckets distinct comment strings for review. Every bucket
// is sorted so repeated runs over the same input produce identical
// output; the classification itself is heuristic, determinism is the
// only contract.
type CommentReport struct {
	TempoKey     []string       `json:"tempoKey"`
	Genre        []string       `json:"genre"`
	URL          []string       `json:"url"`
	Hex          []string       `json:"hex"`
	Combinations []CommentCombo `json:"combinations"`
	Other        []string       `json:"other"`
}

var (
	// Key/tempo shorthand like "4A - 128" or "128 - 4A" (Camelot key,
	// optionally harmonic-minor suffixed, with a BPM on the other side).
	tempoKeyPattern  = regexp.MustCompile(`^\d{1,2}[A-Za-z]m? - \d{1,3}$`)
	tempoKeyReversed = regexp.MustCompile(`^\d{1,3} - \d{1,2}[A-Za-z]m?$`)

	// Bracketed tag shape like "[House] [Deep]".
	bracketPattern = regexp.MustCompile(`^\s*(\[[^\[\]]+\]\s*)+$`)

	urlScheme = regexp.MustCompile(`(?i)\bhttps?://|\bwww\.`)
	urlDomain = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9.-]*\.(com|net|org|io|fm|tv|co|de|uk|nl|bandcamp)\b`)

	hexRun = regexp.MustCompile(`^[0-9a-fA-F\s]+$`)
)

// genreKeywords is a curated list of genre and style tokens seen in DJ
// library comments. Matched case-insensitively on word boundaries.
var genreKeywords = []string{
	"acid", "afro", "afrobeat", "amapiano", "ambient", "bass", "bassline",
	"breakbeat", "breaks", "chill", "chillout", "classical", "country",
	"dance", "dancehall", "deep house", "disco", "dnb", "downtempo",
	"drum and bass", "dub", "dubstep", "edm", "electro", "electronica",
	"folk", "funk", "funky", "garage", "grime", "hard house", "hardcore",
	"hardstyle", "hip hop", "hiphop", "house", "idm", "indie",
	"industrial", "jazz", "jungle", "latin", "lounge", "melodic",
	"minimal", "moombahton", "pop", "progressive", "psytrance", "punk",
	"rap", "reggae", "reggaeton", "rnb", "rock", "salsa", "ska", "soul",
	"soundtrack", "synthwave", "tech house", "techno", "trance", "trap",
	"tribal",
}

var genrePattern = regexp.MustCompile(`(?i)\b(` + strings.Join(genreKeywords, "|") + `)\b`)

// isTempoKey reports whether the comment is key/tempo shorthand.
func isTempoKey(comment string) bool {
	trimmed := strings.TrimSpace(comment)
	return tempoKeyPattern.MatchString(trimmed) || tempoKeyReversed.MatchString(trimmed)
}

// isGenre reports whether the comment carries a known genre keyword or
// the bracketed tag shape.
func isGenre(comment string) bool {
	return genrePattern.MatchString(comment) || bracketPattern.MatchString(comment)
}

// isURL reports whether the comment looks like it contains a link.
func isURL(comment string) bool {
	return urlScheme.MatchString(comment) || urlDomain.MatchString(comment)
}

// isHex reports whether the comment is a long run of hex characters and
// whitespace, as left behind by analysis tools.
func isHex(comment string) bool {
	return len(comment) >= 40 && hexRun.MatchString(comment) && strings.TrimSpace(comment) != ""
}

// classify returns the categories a single comment matches. Hex takes
// precedence over genre so a fingerprint blob that happens to contain a
// keyword run is never double-counted.
func classify(comment string) []string {
	var categories []string
	if isTempoKey(comment) {
		categories = append(categories, CategoryTempoKey)
	}
	hex := isHex(comment)
	if hex {
		categories = append(categories, CategoryHex)
	}
	if !hex && isGenre(comment) {
		categories = append(categories, CategoryGenre)
	}
	if isURL(comment) {
		categories = append(categories, CategoryURL)
	}
	return categories
}

// CategorizeComments buckets a set of distinct comment strings. Pure and
// deterministic: same input set, same report.
func CategorizeComments(comments []string) *CommentReport {
	report := &CommentReport{}

	for _, comment := range comments {
		categories := classify(comment)
		switch {
		case len(categories) >= 2:
			sort.Strings(categories)
			report.Combinations = append(report.Combinations, CommentCombo{
				Comment:    comment,
				Categories: categories,
			})
		case len(categories) == 0:
			report.Other = append(report.Other, comment)
		default:
			switch categories[0] {
			case CategoryTempoKey:
				report.TempoKey = append(report.TempoKey, comment)
			case CategoryGenre:
				report.Genre = append(report.Genre, comment)
			case CategoryURL:
				report.URL = append(report.URL, comment)
			case CategoryHex:
				report.Hex = append(report.Hex, comment)
			}
		}
	}

	sort.Strings(report.TempoKey)
	sort.Strings(report.Genre)
	sort.Strings(report.URL)
	sort.Strings(report.Hex)
	sort.Strings(report.Other)
	sort.Slice(report.Combinations, func(i, j int) bool {
		return report.Combinations[i].Comment < report.Combinations[j].Comment
	})
	return report
}
