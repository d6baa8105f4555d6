package repo

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
)

// MessageRepo is the messaging collaborator interface.
// Send failures are the caller's to log; they are never fatal.
type MessageRepo interface {
	// SendText sends a plain text message to a chat.
	SendText(ctx context.Context, chatID, text string) error

	// SendTextWithMention sends a text message that @mentions one member.
	SendTextWithMention(ctx context.Context, chatID, text string, target *domain.Member) error

	// SendImage uploads a PNG and sends it as an image message.
	SendImage(ctx context.Context, chatID string, png []byte) error

	// GetChatMembers gets the list of chat members.
	GetChatMembers(ctx context.Context, chatID string) ([]domain.Member, error)
}
