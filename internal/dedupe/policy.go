package dedupe

import (
	"fmt"
	"strings"

	"fermata/internal/quality"
	"fermata/pkg/models"
)

// Resolve picks the keeper for one group and emits a move decision for
// every other member. The keeper is the highest quality score; a full
// tie keeps the first-encountered file in scan order. The plan is
// identical whether or not the caller later executes it, which is what
// makes dry-run output trustworthy.
func Resolve(group models.DuplicateGroup) models.Resolution {
	keeper := group.Members[0]
	keeperScore := quality.Profile(keeper.Properties)
	for _, member := range group.Members[1:] {
		if quality.Compare(quality.Profile(member.Properties), keeperScore) > 0 {
			keeper = member
			keeperScore = quality.Profile(member.Properties)
		}
	}

	label := describe(keeper)
	moves := make([]models.MoveDecision, 0, len(group.Members)-1)
	for _, member := range group.Members {
		if member.Index == keeper.Index {
			continue
		}
		moves = append(moves, models.MoveDecision{
			Path: member.Path,
			Reason: fmt.Sprintf("duplicate of %q: %s",
				label, quality.Explain(keeper.Properties, member.Properties)),
		})
	}

	return models.Resolution{Group: group, Keeper: keeper, Moves: moves}
}

// ResolveAll maps Resolve over every group, preserving group order.
func ResolveAll(groups []models.DuplicateGroup) []models.Resolution {
	resolutions := make([]models.Resolution, 0, len(groups))
	for _, group := range groups {
		resolutions = append(resolutions, Resolve(group))
	}
	return resolutions
}

// describe renders the matched identity for reason strings, e.g.
// "Artist A, Artist B - Track (Club Mix)".
func describe(rec models.ScanRecord) string {
	var b strings.Builder
	if len(rec.Identity.Artists) > 0 {
		b.WriteString(strings.Join(rec.Identity.Artists, ", "))
		b.WriteString(" - ")
	}
	b.WriteString(rec.Identity.Title)
	if version := rec.Key.Version; version.Class != models.VersionOriginal {
		fmt.Fprintf(&b, " (%s)", version.Describe())
	}
	return b.String()
}
