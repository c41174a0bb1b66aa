// Package dedupe buckets scanned files into duplicate groups and picks
// the surviving copy per group. It performs no I/O; resolutions are
// plans for the caller to print or execute.
package dedupe

import (
	"sort"

	"fermata/pkg/models"
)

// Group buckets records by exact NormalizedKey equality and returns the
// groups with two or more members. Singletons are not duplicates and are
// dropped here. Output ordering follows the scan order of each group's
// first member, so reruns over an unchanged file set are reproducible.
func Group(records []models.ScanRecord) []models.DuplicateGroup {
	ordered := make([]models.ScanRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	buckets := make(map[models.NormalizedKey][]models.ScanRecord)
	var firstSeen []models.NormalizedKey
	for _, rec := range ordered {
		if _, ok := buckets[rec.Key]; !ok {
			firstSeen = append(firstSeen, rec.Key)
		}
		buckets[rec.Key] = append(buckets[rec.Key], rec)
	}

	var groups []models.DuplicateGroup
	for _, key := range firstSeen {
		members := buckets[key]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, models.DuplicateGroup{Key: key, Members: members})
	}
	return groups
}
