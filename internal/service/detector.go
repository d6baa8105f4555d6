package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

// InboundMessage is one chat message entering the detection pipeline.
type InboundMessage struct {
	ChatID   string
	UserID   string
	UserName string
	Text     string
}

// DetectorService runs the two-stage promise detection pipeline: local
// classifier gate first, generative confirmation second, then persistence
// and the acknowledgement message.
type DetectorService struct {
	gate      *usecase.Gate
	confirmer *usecase.Confirmer
	resolver  *usecase.TimeResolver
	promises  repo.PromiseRepo
	messages  repo.MessageRepo
	detectLog repo.DetectionLogRepo
	history   *domain.HistoryBook
	now       func() time.Time
}

// NewDetectorService creates the detector.
func NewDetectorService(
	gate *usecase.Gate,
	confirmer *usecase.Confirmer,
	resolver *usecase.TimeResolver,
	promises repo.PromiseRepo,
	messages repo.MessageRepo,
	detectLog repo.DetectionLogRepo,
) *DetectorService {
	return &DetectorService{
		gate:      gate,
		confirmer: confirmer,
		resolver:  resolver,
		promises:  promises,
		messages:  messages,
		detectLog: detectLog,
		history:   domain.NewHistoryBook(),
		now:       time.Now,
	}
}

// HandleMessage feeds one message through the pipeline. Every message still
// lands in the rolling history, even when detection is disabled or the
// message is filtered out early.
func (s *DetectorService) HandleMessage(ctx context.Context, msg *InboundMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	s.history.Append(msg.UserID, text)

	if !s.gate.Enabled() {
		return
	}

	result, err := s.gate.Check(ctx, text, s.history.ContextWindow(msg.UserID))
	if err != nil {
		fmt.Printf("[Detector] Gate check failed for user %s: %v\n", msg.UserID, err)
		return
	}
	if !result.IsPromise {
		return
	}

	det := &repo.Detection{
		UserID:     msg.UserID,
		ChatID:     msg.ChatID,
		Content:    text,
		Confidence: result.Confidence,
		Escalated:  result.Escalate,
		CreatedAt:  s.now(),
	}
	defer s.audit(det)

	if !result.Escalate {
		fmt.Printf("[Detector] Below threshold (%.2f), not escalating: %s\n", result.Confidence, truncate(text, 50))
		return
	}

	verdict, err := s.confirmer.Confirm(ctx, text, s.history.FullHistory(msg.UserID))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrProviderUnavailable):
			fmt.Println("[Detector] No confirmation provider configured, skipping candidate")
		case errors.Is(err, usecase.ErrVerdictParse):
			fmt.Printf("[Detector] Confirmation verdict unparseable: %v\n", err)
		default:
			fmt.Printf("[Detector] Confirmation failed: %v\n", err)
		}
		return
	}
	if !verdict.IsPromise {
		return
	}

	now := s.now()
	rec := &domain.PromiseRecord{
		Content:          verdict.PromiseContent,
		MadeTimestamp:    now.Unix(),
		UserName:         msg.UserName,
		UserID:           msg.UserID,
		UnifiedMsgOrigin: msg.ChatID,
	}

	due := s.resolver.Resolve(verdict.ReminderTime, now)
	if !due.IsZero() {
		rec.DueTimestamp = due.Unix()
	}

	added, err := s.promises.Add(ctx, msg.UserID, rec)
	if err != nil {
		// The record stays in memory, reminders still fire this run
		fmt.Printf("[Detector] Failed to persist promise for user %s: %v\n", msg.UserID, err)
	}
	if !added {
		// Duplicate content for this user, drop silently
		return
	}
	det.Confirmed = true

	ack := fmt.Sprintf("【言而有信】AI已记录你的承诺：%s (置信度: %.0f%%)", rec.Content, result.Confidence*100)
	if rec.HasDeadline() {
		ack += fmt.Sprintf("，提醒时间：%s", due.Format("2006-01-02 15:04"))
	}
	if err := s.messages.SendText(ctx, msg.ChatID, ack); err != nil {
		fmt.Printf("[Detector] Failed to send acknowledgement: %v\n", err)
	}

	fmt.Printf("[Detector] Recorded promise for %s (%s): %s\n", msg.UserName, msg.UserID, rec.Content)
}

// audit records the pipeline decision. Failures are logged, never fatal.
func (s *DetectorService) audit(det *repo.Detection) {
	if s.detectLog == nil {
		return
	}
	if err := s.detectLog.Record(context.Background(), det); err != nil {
		fmt.Printf("[Detector] Failed to record detection audit row: %v\n", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
