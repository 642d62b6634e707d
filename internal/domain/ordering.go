package domain

import (
	"sort"
	"strings"
	"time"
)

// MatchesQuery reports whether the posting title contains query, ignoring case.
// An empty query matches everything.
func MatchesQuery(p *JobPosting, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), strings.ToLower(query))
}

// SortNewestFirst orders postings by PostedAt descending, then by ID, which is
// the listing order every repository serves.
func SortNewestFirst(postings []JobPosting) {
	sort.SliceStable(postings, func(i, j int) bool {
		ti, tj := postedAt(&postings[i]), postedAt(&postings[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return postings[i].ID < postings[j].ID
	})
}

// FilterAndPage applies the listing contract to an unordered set of postings.
func FilterAndPage(all []JobPosting, req PageRequest) *Page {
	matched := make([]JobPosting, 0, len(all))
	for i := range all {
		if MatchesQuery(&all[i], req.Query) {
			matched = append(matched, all[i])
		}
	}
	SortNewestFirst(matched)
	return Paginate(matched, req)
}

// ShouldExpire reports whether an active posting was posted before cutoff.
func ShouldExpire(p *JobPosting, cutoff time.Time) bool {
	return p.Active && p.PostedAt != nil && p.PostedAt.Before(cutoff)
}

func postedAt(p *JobPosting) time.Time {
	if p.PostedAt == nil {
		return time.Time{}
	}
	return *p.PostedAt
}
