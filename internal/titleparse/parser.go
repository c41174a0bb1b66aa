// Package titleparse turns raw audio filenames (extension removed) into
// structured track identities. It only looks at text; it never touches
// the filesystem.
package titleparse

import (
	"fmt"
	"regexp"
	"strings"

	"fermata/pkg/models"
)

// ErrorKind discriminates parse failures.
type ErrorKind int

const (
	// Unparseable means the input was empty or reduced to nothing.
	Unparseable ErrorKind = iota
	// EmptyTitle means a separator was found but no title text survived.
	EmptyTitle
)

func (k ErrorKind) String() string {
	if k == EmptyTitle {
		return "empty title"
	}
	return "unparseable"
}

// ParseError reports why a filename could not be parsed. Files failing to
// parse are excluded from grouping but never abort a scan.
type ParseError struct {
	Kind  ErrorKind
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Kind)
}

var (
	// Leading track/disc numbers: "01. ", "12 - ", "3-".
	trackPrefixRe = regexp.MustCompile(`^\d+[\s.\-]+`)

	// Collaboration connectors inside the artist segment. A trailing
	// DJ/stage-name alias separated by one of these stays its own entry.
	// "feat"/"ft" must end at a dot or whitespace so names like
	// "Feather" are never split mid-word.
	artistSplitRe = regexp.MustCompile(`(?i)(?:\s*,\s*|\s*&\s*|\s+x\s+|\s+featuring\s+|\s+feat(?:\.\s*|\s+)|\s+ft(?:\.\s*|\s+))`)

	// Words that mark a bracket group or trailing phrase as a version tag.
	versionMarkerRe = regexp.MustCompile(`(?i)\b(remix|rmx|rework|reconstruction|bootleg|mashup|flip|recut|reprise|mix|edit|version|radio|club|extended|dub|instrumental|acapella|acoustic|live|remaster|remastered|original)\b`)
)

// Free-text version phrases accepted without brackets, longest first so
// "extended club mix" wins over "club mix".
var trailingPhrases = []string{
	"original extended mix",
	"extended club mix",
	"original club mix",
	"original mix",
	"extended mix",
	"extended version",
	"club mix",
	"radio edit",
	"radio mix",
	"dance mix",
	"dub mix",
	"club edit",
	"remastered",
	"remaster",
	"instrumental",
	"acapella",
	"bootleg",
	"mashup",
	"remix",
	"rework",
}

// Parse converts a filename without extension into a TrackIdentity.
//
// The primary artist/title separator is " - ". When it is absent the
// whole string becomes the title with no artists, so instrumental and
// unknown-artist files still parse. Underscores count as spaces and a
// leading track number is dropped before splitting.
func Parse(name string) (models.TrackIdentity, error) {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	cleaned = strings.TrimSpace(trackPrefixRe.ReplaceAllString(cleaned, ""))
	if cleaned == "" {
		return models.TrackIdentity{}, &ParseError{Kind: Unparseable, Input: name}
	}

	var artistSeg, titleSeg string
	if idx := strings.Index(cleaned, " - "); idx >= 0 {
		artistSeg = strings.TrimSpace(cleaned[:idx])
		titleSeg = strings.TrimSpace(cleaned[idx+3:])
	} else {
		titleSeg = cleaned
	}

	title, version := extractVersion(titleSeg)
	if title == "" {
		return models.TrackIdentity{}, &ParseError{Kind: EmptyTitle, Input: name}
	}

	return models.TrackIdentity{
		Artists: splitArtists(artistSeg),
		Title:   title,
		Version: version,
	}, nil
}

// splitArtists breaks the artist segment on collaboration connectors,
// preserving filename order. Returns an empty (non-nil) slice for "".
func splitArtists(segment string) []string {
	artists := []string{}
	if strings.TrimSpace(segment) == "" {
		return artists
	}
	for _, part := range artistSplitRe.Split(segment, -1) {
		if name := strings.TrimSpace(part); name != "" {
			artists = append(artists, name)
		}
	}
	return artists
}

// extractVersion detects a trailing version tag on the title segment.
//
// A trailing "(...)" or "[...]" group is checked first: if its text
// contains a known version marker it becomes the version, otherwise the
// whole bracket group is a non-version annotation and stays attached to
// the title untouched (earlier bracket groups are never inspected).
// Without brackets, a trailing free-text phrase from the known
// vocabulary is accepted, e.g. "Track Club Mix".
func extractVersion(segment string) (title, version string) {
	segment = strings.TrimSpace(segment)

	if open, ok := trailingBracket(segment); ok {
		content := strings.TrimSpace(segment[open+1 : len(segment)-1])
		if IsVersionText(content) {
			return strings.TrimSpace(segment[:open]), content
		}
		return segment, ""
	}

	lower := strings.ToLower(segment)
	for _, phrase := range trailingPhrases {
		if strings.HasSuffix(lower, " "+phrase) {
			cut := len(segment) - len(phrase)
			return strings.TrimSpace(segment[:cut]), strings.TrimSpace(segment[cut:])
		}
	}
	return segment, ""
}

// trailingBracket returns the index of the opening rune of a bracket
// group that closes the segment, if any.
func trailingBracket(segment string) (int, bool) {
	if strings.HasSuffix(segment, ")") {
		if open := strings.LastIndex(segment, "("); open >= 0 {
			return open, true
		}
	}
	if strings.HasSuffix(segment, "]") {
		if open := strings.LastIndex(segment, "["); open >= 0 {
			return open, true
		}
	}
	return 0, false
}

// IsVersionText reports whether text carries version meaning. A bare year
// or other digit-only annotation does not; "1999 Remaster" does.
func IsVersionText(text string) bool {
	return versionMarkerRe.MatchString(text)
}
