// Package identity canonicalizes parsed track identities into the
// comparison keys used for duplicate grouping. Normalization is total and
// deterministic: the same TrackIdentity always yields the same key.
package identity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fermata/pkg/models"
)

var (
	accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	bracketGroupRe = regexp.MustCompile(`\s*(\([^)]*\)|\[[^\]]*\])\s*`)
	digitsOnlyRe   = regexp.MustCompile(`^[\d\s.\-]+$`)
)

// Bracketed notes carrying no version meaning, dropped from clean titles
// so "Track (Deluxe Edition)" and "Track" collapse together.
var decorationWords = map[string]bool{
	"edition":     true,
	"deluxe":      true,
	"bonus":       true,
	"anniversary": true,
	"reissue":     true,
	"expanded":    true,
	"digital":     true,
	"explicit":    true,
	"clean":       true,
}

// Filler words ignored in clean titles; numerals are always kept.
var fillerWords = map[string]bool{
	"the": true,
}

// Normalize derives the grouping key for a parsed identity.
func Normalize(id models.TrackIdentity) models.NormalizedKey {
	return models.NormalizedKey{
		ArtistSet:  artistSet(id.Artists),
		CleanTitle: cleanTitle(id.Title),
		Version:    ClassifyVersion(id.Version),
	}
}

// artistSet folds, deduplicates and sorts artist names so collaborator
// order never affects grouping. The "|" join keeps the key comparable.
func artistSet(artists []string) string {
	seen := make(map[string]bool, len(artists))
	set := make([]string, 0, len(artists))
	for _, artist := range artists {
		name := foldToken(artist)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		set = append(set, name)
	}
	sort.Strings(set)
	return strings.Join(set, "|")
}

// cleanTitle lowercases, folds accents, strips decoration brackets and
// filler words, and collapses whitespace/punctuation.
func cleanTitle(title string) string {
	stripped := bracketGroupRe.ReplaceAllStringFunc(title, func(group string) string {
		content := strings.Trim(group, " ()[]")
		if isDecoration(content) {
			return " "
		}
		return " " + content + " "
	})

	words := strings.Fields(foldToken(stripped))
	kept := words[:0]
	for _, word := range words {
		if fillerWords[word] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// isDecoration reports whether bracket content is a non-identity note:
// an edition/reissue marker or a bare year.
func isDecoration(content string) bool {
	if digitsOnlyRe.MatchString(content) {
		return true
	}
	for _, word := range strings.Fields(foldToken(content)) {
		if decorationWords[word] {
			return true
		}
	}
	return false
}

// foldToken lowercases, strips accents and punctuation, and collapses
// whitespace. "Tiësto" and "tiesto" fold to the same token.
func foldToken(s string) string {
	folded, _, err := transform.String(accentFold, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ClassifyVersion maps raw version text onto the closed category set.
// Unmatched non-empty text becomes a NamedEdit carrying the folded raw
// string, so identical unrecognized remixer tags still group together.
func ClassifyVersion(raw string) models.Version {
	if strings.TrimSpace(raw) == "" {
		return models.Version{Class: models.VersionOriginal}
	}
	folded := foldToken(raw)
	if folded == "" {
		return models.Version{Class: models.VersionUnknown}
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(folded) {
		words[w] = true
	}

	switch {
	case words["remaster"] || words["remastered"]:
		return models.Version{Class: models.VersionRemaster}
	case words["radio"]:
		return models.Version{Class: models.VersionRadioEdit}
	case words["club"]:
		return models.Version{Class: models.VersionClubMix}
	case words["extended"]:
		return models.Version{Class: models.VersionExtendedMix}
	case words["original"]:
		return models.Version{Class: models.VersionOriginal}
	default:
		return models.Version{Class: models.VersionNamedEdit, Raw: folded}
	}
}
