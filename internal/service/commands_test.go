package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

func textSegments(text string) []domain.Segment {
	return []domain.Segment{{Kind: domain.SegmentText, Text: text}}
}

func newCommands(promises *mockPromiseRepo, messages *mockMessageRepo, renderer repo.RenderRepo, detectLog repo.DetectionLogRepo) *CommandService {
	return NewCommandService(usecase.NewQuery(promises), messages, renderer, detectLog)
}

func TestDispatchIgnoresOrdinaryMessages(t *testing.T) {
	cmds := newCommands(newMockPromiseRepo(), newMockMessageRepo(), nil, &mockDetectLog{})

	if cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("明天我请客")) {
		t.Error("ordinary chatter is not a command")
	}
	if cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("说好了言而有信啊")) {
		t.Error("the keyword mid-sentence is not a command")
	}
}

func TestLeaderboardCommandEmptyStore(t *testing.T) {
	messages := newMockMessageRepo()
	cmds := newCommands(newMockPromiseRepo(), messages, nil, &mockDetectLog{})

	if !cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信排行")) {
		t.Fatal("leaderboard command not recognized")
	}
	sent := messages.sentTexts()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "还没有任何人") {
		t.Errorf("expected empty-store notice, got %+v", sent)
	}
}

func TestLeaderboardCommandRendersImage(t *testing.T) {
	promises := newMockPromiseRepo()
	promises.byUser["u1"] = []*domain.PromiseRecord{
		{Content: "a", UserName: "Alice", MadeTimestamp: 1},
		{Content: "b", UserName: "Alice", MadeTimestamp: 2},
	}
	messages := newMockMessageRepo()
	renderer := &mockRenderer{png: []byte("fake-png")}
	cmds := newCommands(promises, messages, renderer, &mockDetectLog{})

	cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信排行"))

	if len(messages.images) != 1 {
		t.Fatalf("expected 1 image send, got %d", len(messages.images))
	}
	if got := len(messages.sentTexts()); got != 0 {
		t.Errorf("image path should not also send text, got %d", got)
	}
}

func TestLeaderboardCommandFallsBackToText(t *testing.T) {
	promises := newMockPromiseRepo()
	promises.byUser["u1"] = []*domain.PromiseRecord{{Content: "a", UserName: "Alice", MadeTimestamp: 1}}
	messages := newMockMessageRepo()
	renderer := &mockRenderer{err: errors.New("chrome missing")}
	cmds := newCommands(promises, messages, renderer, &mockDetectLog{})

	cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信排行"))

	sent := messages.sentTexts()
	if len(sent) != 1 {
		t.Fatalf("expected text fallback, got %d sends", len(sent))
	}
	if !strings.Contains(sent[0].Text, "Alice") || !strings.Contains(sent[0].Text, "1 条承诺") {
		t.Errorf("fallback text = %q", sent[0].Text)
	}
}

func TestPromisesCommandForSelf(t *testing.T) {
	promises := newMockPromiseRepo()
	promises.byUser["u1"] = []*domain.PromiseRecord{{Content: "写完测试", UserName: "Alice", MadeTimestamp: 1}}
	messages := newMockMessageRepo()
	cmds := newCommands(promises, messages, nil, &mockDetectLog{})

	if !cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信")) {
		t.Fatal("promises command not recognized")
	}
	sent := messages.sentTexts()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "写完测试") {
		t.Errorf("expected own promise listing, got %+v", sent)
	}
}

func TestPromisesCommandTargetsMention(t *testing.T) {
	promises := newMockPromiseRepo()
	promises.byUser["u2"] = []*domain.PromiseRecord{{Content: "请喝奶茶", UserName: "张三", MadeTimestamp: 1}}
	messages := newMockMessageRepo()
	cmds := newCommands(promises, messages, nil, &mockDetectLog{})

	segments := []domain.Segment{
		{Kind: domain.SegmentText, Text: "言而有信"},
		{Kind: domain.SegmentMention, UserID: "u2", UserName: "张三"},
	}
	cmds.Dispatch(context.Background(), "c", "u1", "Alice", segments)

	sent := messages.sentTexts()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "请喝奶茶") {
		t.Errorf("expected mentioned user's promises, got %+v", sent)
	}
}

func TestPromisesCommandUnknownUser(t *testing.T) {
	messages := newMockMessageRepo()
	cmds := newCommands(newMockPromiseRepo(), messages, nil, &mockDetectLog{})

	cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信"))

	sent := messages.sentTexts()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "没有找到 Alice") {
		t.Errorf("expected not-found notice, got %+v", sent)
	}
}

func TestStatsCommand(t *testing.T) {
	messages := newMockMessageRepo()
	detectLog := &mockDetectLog{statsV: repo.DetectionStats{Total: 42, Escalated: 7, Confirmed: 3}}
	cmds := newCommands(newMockPromiseRepo(), messages, nil, detectLog)

	if !cmds.Dispatch(context.Background(), "c", "u1", "Alice", textSegments("言而有信统计")) {
		t.Fatal("stats command not recognized")
	}
	sent := messages.sentTexts()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(sent))
	}
	for _, want := range []string{"42", "7", "3"} {
		if !strings.Contains(sent[0].Text, want) {
			t.Errorf("stats reply %q missing %s", sent[0].Text, want)
		}
	}
}
