package usecase

import (
	"sort"
	"time"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

// DefaultLeaderboardSize is the number of leaderboard rows shown.
const DefaultLeaderboardSize = 10

// LeaderboardEntry is one row of the promise-count ranking.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PromiseView is a record with its derived status, for listings.
type PromiseView struct {
	Content string     `json:"content"`
	Status  string     `json:"status"`
	MadeAt  time.Time  `json:"made_at"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

// Query provides the read-only views over the promise store.
type Query struct {
	promises repo.PromiseRepo
}

// NewQuery creates a query service.
func NewQuery(promises repo.PromiseRepo) *Query {
	return &Query{promises: promises}
}

// Leaderboard returns up to topN users ranked by promise count. Users are
// keyed by the display name cached on their first record; a later user with
// the same cached name overwrites the earlier count. Users with no records
// are excluded. Tie order is unspecified beyond being stable over the
// user-id order.
func (q *Query) Leaderboard(topN int) []LeaderboardEntry {
	if topN <= 0 {
		topN = DefaultLeaderboardSize
	}

	byUser := q.promises.AllByUser()
	ids := make([]string, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type row struct {
		name  string
		count int
	}
	var rows []row
	seen := make(map[string]int) // name -> index into rows
	for _, id := range ids {
		recs := byUser[id]
		if len(recs) == 0 {
			continue
		}
		name := recs[0].UserName
		if idx, ok := seen[name]; ok {
			rows[idx].count = len(recs)
			continue
		}
		seen[name] = len(rows)
		rows = append(rows, row{name: name, count: len(recs)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].count > rows[j].count
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = LeaderboardEntry{Rank: i + 1, Name: r.name, Count: r.count}
	}
	return entries
}

// PromisesOf returns the user's records in insertion order with derived
// statuses. Empty for unknown users.
func (q *Query) PromisesOf(userID string) []PromiseView {
	recs := q.promises.ListFor(userID)
	views := make([]PromiseView, 0, len(recs))
	for _, rec := range recs {
		view := PromiseView{
			Content: rec.Content,
			Status:  string(rec.Status()),
			MadeAt:  rec.MadeAt(),
		}
		if rec.HasDeadline() {
			due := rec.DueAt()
			view.DueAt = &due
		}
		views = append(views, view)
	}
	return views
}

// DisplayNameOf returns the cached display name on the user's first record,
// or empty when the user has none.
func (q *Query) DisplayNameOf(userID string) string {
	recs := q.promises.ListFor(userID)
	if len(recs) == 0 {
		return ""
	}
	return recs[0].UserName
}
