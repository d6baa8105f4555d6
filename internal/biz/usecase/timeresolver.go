package usecase

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// noDeadlinePhrases are reminder-time answers equivalent to "no deadline".
var noDeadlinePhrases = map[string]struct{}{
	"":     {},
	"none": {},
	"no":   {},
	"null": {},
	"无":    {},
	"不需要":  {},
}

// TimeResolver converts free-text deadline phrases into absolute times.
// It never fails: anything it cannot parse means "no deadline".
type TimeResolver struct {
	parser *when.Parser
}

// NewTimeResolver creates a resolver with the English rule set.
func NewTimeResolver() *TimeResolver {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return &TimeResolver{parser: p}
}

// Resolve parses text relative to now. The zero time is the "no deadline"
// sentinel. Ambiguous phrases are biased toward the future: a resolution in
// the past is rolled forward by whole days, up to a week.
func (r *TimeResolver) Resolve(text string, now time.Time) time.Time {
	norm := strings.ToLower(strings.TrimSpace(text))
	if _, ok := noDeadlinePhrases[norm]; ok {
		return time.Time{}
	}

	result, err := r.parser.Parse(text, now)
	if err != nil || result == nil {
		return time.Time{}
	}

	t := result.Time
	for i := 0; i < 7 && !t.After(now); i++ {
		t = t.AddDate(0, 0, 1)
	}
	if !t.After(now) {
		return time.Time{}
	}
	return t
}
