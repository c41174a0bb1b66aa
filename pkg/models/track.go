package models

// TrackIdentity is the structured form of a parsed filename. Artists keep
// their original filename order; Version is the raw tag text ("" if none).
type TrackIdentity struct {
	Artists []string `json:"artists"`
	Title   string   `json:"title"`
	Version string   `json:"version,omitempty"`
}

// VersionClass is the closed set of recognized version categories.
type VersionClass int

const (
	VersionOriginal VersionClass = iota
	VersionClubMix
	VersionRadioEdit
	VersionExtendedMix
	VersionRemaster
	VersionNamedEdit
	VersionUnknown
)

// String returns the human-readable class name.
func (c VersionClass) String() string {
	switch c {
	case VersionOriginal:
		return "Original"
	case VersionClubMix:
		return "Club Mix"
	case VersionRadioEdit:
		return "Radio Edit"
	case VersionExtendedMix:
		return "Extended Mix"
	case VersionRemaster:
		return "Remaster"
	case VersionNamedEdit:
		return "Named Edit"
	default:
		return "Unknown"
	}
}

// Version pairs a class with the raw lowercased tag text. Raw is only set
// for NamedEdit so that two files carrying the same unrecognized remixer
// tag still group together while different tags stay apart.
type Version struct {
	Class VersionClass `json:"class"`
	Raw   string       `json:"raw,omitempty"`
}

// Describe renders the version for reason strings, e.g. "Club Mix" or the
// raw named-edit text.
func (v Version) Describe() string {
	if v.Class == VersionNamedEdit {
		return v.Raw
	}
	return v.Class.String()
}

// NormalizedKey is the canonical grouping key derived from a TrackIdentity.
// Two files are duplicates iff their keys are equal, version included.
// ArtistSet is the sorted, lowercased, accent-folded artist names joined
// with "|" so the struct stays comparable and order-independent.
type NormalizedKey struct {
	ArtistSet  string  `json:"artistSet"`
	CleanTitle string  `json:"cleanTitle"`
	Version    Version `json:"version"`
}

// Format is the container/codec kind of an audio file.
type Format int

const (
	FormatOther Format = iota
	FormatMP3
	FormatFLAC
	FormatWAV
)

func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "FLAC"
	case FormatWAV:
		return "WAV"
	case FormatMP3:
		return "MP3"
	default:
		return "Other"
	}
}

// Lossless reports whether the format is an uncompressed or losslessly
// compressed container. Lossless formats always outrank lossy ones.
func (f Format) Lossless() bool {
	return f == FormatFLAC || f == FormatWAV
}

// AudioProperties holds the measured characteristics of one file. It is
// computed once at scan time and immutable afterwards. BitrateKbps is 0
// when the bitrate could not be determined.
type AudioProperties struct {
	Format        Format  `json:"format"`
	BitrateKbps   int     `json:"bitrateKbps"`
	DurationSecs  float64 `json:"durationSecs"`
	SampleRate    int     `json:"sampleRate"`
	Channels      int     `json:"channels"`
	FileSizeBytes int64   `json:"fileSizeBytes"`
}

// ScanRecord is one fully processed file: its discovery index (original
// directory-traversal order, used for deterministic tie-breaks), path,
// parsed identity and probed properties.
type ScanRecord struct {
	Index      int             `json:"index"`
	Path       string          `json:"path"`
	Identity   TrackIdentity   `json:"identity"`
	Key        NormalizedKey   `json:"key"`
	Properties AudioProperties `json:"properties"`
}

// ScanFailure records a file excluded from grouping, with the stage that
// rejected it ("probe" or "parse") and the underlying error text.
type ScanFailure struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// DuplicateGroup is a set of files sharing one NormalizedKey, built fresh
// per run. Members keep scan order; size is always >= 2.
type DuplicateGroup struct {
	Key     NormalizedKey `json:"key"`
	Members []ScanRecord  `json:"members"`
}

// MoveDecision is one planned relocation of a lower-quality duplicate.
type MoveDecision struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Resolution is the outcome of resolving one DuplicateGroup: the keeper
// plus a move plan for every other member. It is pure data; executing
// (or merely printing, under dry-run) the plan is the caller's concern.
type Resolution struct {
	Group  DuplicateGroup `json:"group"`
	Keeper ScanRecord     `json:"keeper"`
	Moves  []MoveDecision `json:"moves"`
}
