package domain

import "strings"

// Member represents a chat member (value object).
type Member struct {
	UserID string
	Name   string
}

// SegmentKind tags a message segment variant.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentMention
	SegmentOther
)

// Segment is one typed component of an inbound message. Text segments carry
// Text; mention segments carry the mentioned member's identity.
type Segment struct {
	Kind     SegmentKind
	Text     string
	UserID   string
	UserName string
}

// PlainText concatenates the text segments of a message.
func PlainText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Kind == SegmentText {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// FirstMention returns the first mentioned member, or nil when the message
// mentions nobody.
func FirstMention(segments []Segment) *Member {
	for _, seg := range segments {
		if seg.Kind == SegmentMention {
			return &Member{UserID: seg.UserID, Name: seg.UserName}
		}
	}
	return nil
}
