package domain

import "time"

// minHalfwayWindow is the minimum promise duration that gets a half-way
// reminder. Promises due sooner only get the due reminder.
const minHalfwayWindow = 120 * time.Second

// PromiseStatus is the derived state of a promise for listings.
type PromiseStatus string

const (
	StatusDone    PromiseStatus = "done"
	StatusPending PromiseStatus = "pending"
	StatusLogged  PromiseStatus = "logged"
)

// PromiseRecord is a stored commitment. The JSON tags are the on-disk
// promises.json wire format and must not change.
type PromiseRecord struct {
	Content          string `json:"content"`
	DueTimestamp     int64  `json:"due_timestamp"`
	MadeTimestamp    int64  `json:"made_timestamp"`
	UserName         string `json:"user_name"`
	UserID           string `json:"user_id"`
	UnifiedMsgOrigin string `json:"unified_msg_origin"`
	Reminded         bool   `json:"reminded"`
	HalfwayReminded  bool   `json:"halfway_reminded"`
}

// MadeAt returns the creation time.
func (p *PromiseRecord) MadeAt() time.Time {
	return time.Unix(p.MadeTimestamp, 0)
}

// DueAt returns the deadline, or the zero time when there is none.
func (p *PromiseRecord) DueAt() time.Time {
	if p.DueTimestamp == 0 {
		return time.Time{}
	}
	return time.Unix(p.DueTimestamp, 0)
}

// HasDeadline reports whether the promise carries a deadline.
// A zero due_timestamp is the "no deadline" sentinel.
func (p *PromiseRecord) HasDeadline() bool {
	return p.DueTimestamp != 0
}

// DueReached reports whether the deadline has passed at now.
func (p *PromiseRecord) DueReached(now time.Time) bool {
	return p.HasDeadline() && now.Unix() >= p.DueTimestamp
}

// HalfwayEligible reports whether the promise window is long enough for a
// half-way reminder.
func (p *PromiseRecord) HalfwayEligible() bool {
	if !p.HasDeadline() {
		return false
	}
	return p.DueTimestamp-p.MadeTimestamp >= int64(minHalfwayWindow/time.Second)
}

// HalfwayUnix returns the Unix second at which half of the promise window
// has elapsed. Only meaningful when HalfwayEligible.
func (p *PromiseRecord) HalfwayUnix() int64 {
	return p.MadeTimestamp + (p.DueTimestamp-p.MadeTimestamp)/2
}

// HalfwayReached reports whether the half-way point has passed at now.
func (p *PromiseRecord) HalfwayReached(now time.Time) bool {
	return p.HalfwayEligible() && now.Unix() >= p.HalfwayUnix()
}

// Status derives the listing status: done once the due reminder fired,
// pending while a deadline is outstanding, logged when there is no deadline.
func (p *PromiseRecord) Status() PromiseStatus {
	switch {
	case p.Reminded:
		return StatusDone
	case p.HasDeadline():
		return StatusPending
	default:
		return StatusLogged
	}
}
