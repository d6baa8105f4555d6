package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/lark"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/service"
)

// LarkServer routes incoming Lark messages: commands are answered inline,
// everything else feeds the promise detection pipeline.
type LarkServer struct {
	larkClient  *lark.Client
	messageRepo repo.MessageRepo
	detector    *service.DetectorService
	commands    *service.CommandService

	// Message deduplication cache
	seenMsgsMu sync.RWMutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewLarkServer creates a new Lark server.
func NewLarkServer(
	larkClient *lark.Client,
	messageRepo repo.MessageRepo,
	detector *service.DetectorService,
	commands *service.CommandService,
) *LarkServer {
	return &LarkServer{
		larkClient:  larkClient,
		messageRepo: messageRepo,
		detector:    detector,
		commands:    commands,
		seenMsgs:    make(map[string]time.Time),
	}
}

// Start registers the message handler and blocks on the event stream.
func (s *LarkServer) Start() error {
	s.larkClient.OnMessage(s.handleMessage)
	return s.larkClient.Start()
}

// Stop disconnects the client.
func (s *LarkServer) Stop() {
	s.larkClient.Stop()
}

// handleMessage handles one incoming Lark message.
func (s *LarkServer) handleMessage(msg *lark.Message) {
	// Message deduplication: the platform redelivers on slow ACKs
	if s.isMessageSeen(msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}
	s.markMessageSeen(msg.MsgID)

	ctx := context.Background()
	senderName := s.resolveSenderName(ctx, msg)
	segments := buildSegments(msg)

	if s.commands.Dispatch(ctx, msg.ChatID, msg.SenderID, senderName, segments) {
		return
	}

	// Detection is async so a slow classifier or provider call never
	// backs up the event stream
	go s.detector.HandleMessage(context.Background(), &service.InboundMessage{
		ChatID:   msg.ChatID,
		UserID:   msg.SenderID,
		UserName: senderName,
		Text:     domain.PlainText(segments),
	})
}

// resolveSenderName looks the sender up in the chat member list, falling
// back to an id-derived placeholder.
func (s *LarkServer) resolveSenderName(ctx context.Context, msg *lark.Message) string {
	members, err := s.messageRepo.GetChatMembers(ctx, msg.ChatID)
	if err == nil {
		for _, m := range members {
			if m.UserID == msg.SenderID && m.Name != "" {
				return m.Name
			}
		}
	}
	return "用户" + msg.SenderID
}

// buildSegments converts a parsed Lark message into typed segments: one text
// segment with the mention names stripped out, plus one mention segment per
// @-mention.
func buildSegments(msg *lark.Message) []domain.Segment {
	text := msg.Content
	segments := make([]domain.Segment, 0, len(msg.Mentions)+1)
	for _, m := range msg.Mentions {
		if m.Name != "" {
			text = strings.ReplaceAll(text, "@"+m.Name, "")
		}
		segments = append(segments, domain.Segment{
			Kind:     domain.SegmentMention,
			UserID:   m.UserID,
			UserName: m.Name,
		})
	}
	return append([]domain.Segment{{Kind: domain.SegmentText, Text: strings.TrimSpace(text)}}, segments...)
}

// isMessageSeen checks if a message has been processed.
func (s *LarkServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.RLock()
	defer s.seenMsgsMu.RUnlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and prunes entries older
// than five minutes.
func (s *LarkServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
