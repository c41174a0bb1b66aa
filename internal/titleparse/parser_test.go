package titleparse

import (
	"errors"
	"reflect"
	"testing"

	"fermata/pkg/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.TrackIdentity
	}{
		{
			name:  "artist and title",
			input: "Artist - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track"},
		},
		{
			name:  "bracketed version tag",
			input: "Artist - Track (Club Mix)",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track", Version: "Club Mix"},
		},
		{
			name:  "square bracket version tag",
			input: "Artist - Track [Extended Mix]",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track", Version: "Extended Mix"},
		},
		{
			name:  "free text version without brackets",
			input: "Artist - Track Club Mix",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track", Version: "Club Mix"},
		},
		{
			name:  "year qualified remaster",
			input: "Artist - Track (1999 Remaster)",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track", Version: "1999 Remaster"},
		},
		{
			name:  "bare year is not a version",
			input: "Artist - Track (2011)",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track (2011)"},
		},
		{
			name:  "only the trailing bracket is inspected",
			input: "Artist - Track (Acoustic) (2019)",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track (Acoustic) (2019)"},
		},
		{
			name:  "live annotation is a version",
			input: "Artist - Track (Live at Wembley)",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track", Version: "Live at Wembley"},
		},
		{
			name:  "collaborators split on ampersand",
			input: "Artist A & Artist B - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist A", "Artist B"}, Title: "Track"},
		},
		{
			name:  "collaborators split on comma and feat",
			input: "Artist A, Artist B feat. Artist C - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist A", "Artist B", "Artist C"}, Title: "Track"},
		},
		{
			name:  "collaborators split on x",
			input: "DJ One x DJ Two - Track",
			want:  models.TrackIdentity{Artists: []string{"DJ One", "DJ Two"}, Title: "Track"},
		},
		{
			name:  "artist name starting with feat is not split",
			input: "DJ Feather - Some Track",
			want:  models.TrackIdentity{Artists: []string{"DJ Feather"}, Title: "Some Track"},
		},
		{
			name:  "artist name starting with ft is not split",
			input: "The Ftones - Track",
			want:  models.TrackIdentity{Artists: []string{"The Ftones"}, Title: "Track"},
		},
		{
			name:  "feat without dot still splits",
			input: "Artist feat Other - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist", "Other"}, Title: "Track"},
		},
		{
			name:  "feat dot without trailing space still splits",
			input: "Artist feat.Other - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist", "Other"}, Title: "Track"},
		},
		{
			name:  "ft dot without trailing space still splits",
			input: "Artist ft.Other - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist", "Other"}, Title: "Track"},
		},
		{
			name:  "underscores read as spaces",
			input: "Artist_A_-_Some_Track",
			want:  models.TrackIdentity{Artists: []string{"Artist A"}, Title: "Some Track"},
		},
		{
			name:  "leading track number dropped",
			input: "01. Artist - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track"},
		},
		{
			name:  "leading track number with dash",
			input: "12 - Artist - Track",
			want:  models.TrackIdentity{Artists: []string{"Artist"}, Title: "Track"},
		},
		{
			name:  "no separator yields artistless title",
			input: "Interlude",
			want:  models.TrackIdentity{Artists: []string{}, Title: "Interlude"},
		},
		{
			name:  "digit-led artist name is not a track number",
			input: "2Pac - Changes",
			want:  models.TrackIdentity{Artists: []string{"2Pac"}, Title: "Changes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{name: "empty input", input: "", kind: Unparseable},
		{name: "whitespace only", input: "   ", kind: Unparseable},
		{name: "bare track number", input: "12 - ", kind: Unparseable},
		{name: "version tag without title", input: "Artist - (Club Mix)", kind: EmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) returned %T, want *ParseError", tt.input, err)
			}
			if parseErr.Kind != tt.kind {
				t.Errorf("Parse(%q) error kind = %v, want %v", tt.input, parseErr.Kind, tt.kind)
			}
		})
	}
}

func TestIsVersionText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Club Mix", true},
		{"Radio Edit", true},
		{"Somebody Remix", true},
		{"1999 Remaster", true},
		{"Live", true},
		{"2011", false},
		{"Deluxe Edition", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsVersionText(tt.text); got != tt.want {
			t.Errorf("IsVersionText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
