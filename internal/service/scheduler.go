package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

// DefaultSweepInterval is how often the reminder sweep runs.
const DefaultSweepInterval = 60 * time.Second

// ReminderScheduler periodically sweeps the promise store and sends due and
// half-way reminders.
type ReminderScheduler struct {
	promises repo.PromiseRepo
	messages repo.MessageRepo

	interval time.Duration
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewReminderScheduler creates a new reminder scheduler.
func NewReminderScheduler(promises repo.PromiseRepo, messages repo.MessageRepo, interval time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ReminderScheduler{
		promises: promises,
		messages: messages,
		interval: interval,
		now:      time.Now,
	}
}

// Start starts the sweep loop.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.sweepLoop()

	fmt.Printf("[Reminder] Started with interval %v\n", s.interval)
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	fmt.Println("[Reminder] Stopped")
}

func (s *ReminderScheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Sweep walks every record once, sending whatever reminders fell due since
// the last pass. Flag changes are batched into a single Flush at the end.
func (s *ReminderScheduler) Sweep(ctx context.Context) {
	now := s.now()
	dirty := false

	for _, rec := range s.promises.AllRecords() {
		if s.sweepRecord(ctx, rec, now) {
			dirty = true
		}
	}

	if dirty {
		if err := s.promises.Flush(ctx); err != nil {
			fmt.Printf("[Reminder] Failed to flush store after sweep: %v\n", err)
		}
	}
}

// sweepRecord handles one record and reports whether it mutated flags.
// A panic while handling one record must not kill the sweep for the rest.
func (s *ReminderScheduler) sweepRecord(ctx context.Context, rec *domain.PromiseRecord, now time.Time) (dirty bool) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Reminder] Panic while handling promise %q: %v\n", rec.Content, r)
		}
	}()

	if !rec.Reminded && rec.DueReached(now) {
		text := fmt.Sprintf("⏰【言而有信】你承诺的「%s」到时间了！完成了吗？", rec.Content)
		s.send(ctx, rec, text)
		// The flag advances even when the send failed; a reminder is
		// attempted at most once.
		s.promises.MarkReminded(rec)
		dirty = true
	}

	if rec.HalfwayEligible() && !rec.HalfwayReminded && rec.HalfwayReached(now) {
		text := fmt.Sprintf("⏳【言而有信】你的承诺「%s」已过半程，别忘了哦！", rec.Content)
		s.send(ctx, rec, text)
		s.promises.MarkHalfwayReminded(rec)
		dirty = true
	}

	return dirty
}

func (s *ReminderScheduler) send(ctx context.Context, rec *domain.PromiseRecord, text string) {
	target := &domain.Member{UserID: rec.UserID, Name: rec.UserName}
	if err := s.messages.SendTextWithMention(ctx, rec.UnifiedMsgOrigin, text, target); err != nil {
		fmt.Printf("[Reminder] Failed to send reminder to chat %s: %v\n", rec.UnifiedMsgOrigin, err)
	}
}
