package search

import (
	"regexp"
	"strings"

	"stylus/internal/trackinfo"
)

// Tier identifies one query-construction strategy. Tiers escalate from most
// to least specific; a tier that yields candidates halts escalation.
type Tier string

const (
	// TierFull searches artist plus cleaned title.
	TierFull Tier = "full"
	// TierTitleOnly drops the artist to bypass server-side artist filters
	// (peers commonly block searches naming certain artists outright).
	TierTitleOnly Tier = "title_only"
	// TierKeywordReduced drops one title word at a time and appends the
	// release year, bypassing blocked phrases while staying narrow.
	TierKeywordReduced Tier = "keyword_reduced"
	// TierArtistOnly browses the artist catalog and filters locally. This
	// is the last resort for titles whose characters rarely appear in
	// shared file paths (CJK, Cyrillic).
	TierArtistOnly Tier = "artist_only"
)

// versionSuffixPattern strips catalog version suffixes that pollute keyword
// search, e.g. " - Remastered 2009", " - Mono", " - Deluxe Edition".
var versionSuffixPattern = regexp.MustCompile(
	`(?i)\s*[-–]\s*(` +
		`Mono|Stereo|Remaster(?:ed)?(?:\s+\d{4})?` +
		`|Deluxe(?:\s+Edition)?` +
		`|Ultimate\s+Mix|Single\s+Version|Album\s+Version` +
		`|Radio\s+Edit|Bonus\s+Track|Anniversary(?:\s+Edition)?` +
		`|Super\s+Deluxe|Special\s+Edition|\d{4}\s+Mix` +
		`).*$`,
)

// versionParenPattern matches the same qualifiers inside parentheses:
// "(Remastered 2009)", "(Mono)".
var versionParenPattern = regexp.MustCompile(
	`(?i)\s*\(` +
		`(?:Mono|Stereo|Remaster(?:ed)?(?:\s+\d{4})?` +
		`|Deluxe(?:\s+Edition)?` +
		`|Ultimate\s+Mix|Single\s+Version|Album\s+Version` +
		`|Radio\s+Edit|Bonus\s+Track|Anniversary(?:\s+Edition)?` +
		`|Super\s+Deluxe|Special\s+Edition|\d{4}\s+Mix)` +
		`\)`,
)

// latinWordPattern extracts Latin words of two or more letters from
// mixed-script titles.
var latinWordPattern = regexp.MustCompile(`[a-zA-Z]{2,}`)

// noiseWords are generic release vocabulary that carries no search value.
var noiseWords = map[string]struct{}{
	"single": {}, "version": {}, "long": {}, "short": {}, "full": {},
	"edit": {}, "mix": {}, "remastered": {}, "remaster": {}, "deluxe": {},
	"edition": {}, "bonus": {}, "track": {}, "album": {}, "mono": {},
	"stereo": {}, "original": {}, "extended": {}, "feat": {},
	"featuring": {}, "ft": {}, "the": {}, "an": {}, "and": {}, "or": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"with": {}, "from": {}, "by": {},
}

// CleanTitle strips version suffixes that add useless keywords and kill
// results on a keyword-matching network.
func CleanTitle(title string) string {
	title = versionSuffixPattern.ReplaceAllString(title, "")
	title = versionParenPattern.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// ReducedQueries builds fallback queries by dropping one title word at a
// time and appending the release year. Peers sometimes block entire phrases;
// removing one keyword while adding the year often bypasses the filter and
// still narrows results enough. Returns nothing when the title has fewer
// than two words or no year is known.
func ReducedQueries(title, year string) []string {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil
	}
	words := strings.Fields(title)
	if len(words) < 2 {
		return nil
	}
	queries := make([]string, 0, len(words))
	for i := range words {
		reduced := make([]string, 0, len(words)-1)
		reduced = append(reduced, words[:i]...)
		reduced = append(reduced, words[i+1:]...)
		queries = append(queries, strings.Join(reduced, " ")+" "+year)
	}
	return queries
}

// LatinKeywords extracts the distinctive Latin words from a potentially
// mixed-script title, e.g. ["KURENAI"] from "紅 - KURENAI - シングル".
func LatinKeywords(title string) []string {
	words := latinWordPattern.FindAllString(title, -1)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if _, noise := noiseWords[strings.ToLower(word)]; noise {
			continue
		}
		kept = append(kept, word)
	}
	return kept
}

// TierPlan is one tier's ordered queries. The artist-only tier additionally
// carries local keywords: the server is asked only for the artist, and
// filenames are narrowed client-side.
type TierPlan struct {
	Tier          Tier
	Queries       []string
	LocalKeywords []string
}

// BuildTiers derives the escalation plan for a track reference. Tiers whose
// inputs are missing (no artist, single-word title, no year) are omitted, so
// the plan always contains only executable queries.
func BuildTiers(ref trackinfo.Track) []TierPlan {
	artist := strings.TrimSpace(ref.Artist)
	clean := CleanTitle(ref.Title)

	var plan []TierPlan
	if artist != "" && clean != "" {
		plan = append(plan, TierPlan{Tier: TierFull, Queries: []string{artist + " " + clean}})
	}
	if clean != "" {
		plan = append(plan, TierPlan{Tier: TierTitleOnly, Queries: []string{clean}})
	}
	if reduced := ReducedQueries(clean, ref.Year); len(reduced) > 0 {
		plan = append(plan, TierPlan{Tier: TierKeywordReduced, Queries: reduced})
	}
	if artist != "" {
		plan = append(plan, TierPlan{
			Tier:          TierArtistOnly,
			Queries:       []string{artist},
			LocalKeywords: LatinKeywords(clean),
		})
	}
	return plan
}
