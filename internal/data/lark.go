package data

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/lark"
)

// larkRepo implements the message repository on the Lark client
type larkRepo struct {
	client *lark.Client
}

// NewLarkRepo creates a new Lark message repository
func NewLarkRepo(client *lark.Client) repo.MessageRepo {
	return &larkRepo{client: client}
}

// SendText sends a text message
func (r *larkRepo) SendText(ctx context.Context, chatID, text string) error {
	return r.client.SendText(chatID, text)
}

// SendTextWithMention sends a text message that @mentions one member
func (r *larkRepo) SendTextWithMention(ctx context.Context, chatID, text string, target *domain.Member) error {
	if target == nil {
		return r.client.SendText(chatID, text)
	}
	return r.client.SendTextWithMention(chatID, text, target.UserID, target.Name)
}

// SendImage uploads a PNG and sends it as an image message
func (r *larkRepo) SendImage(ctx context.Context, chatID string, png []byte) error {
	return r.client.SendImage(chatID, png)
}

// GetChatMembers gets chat member list
func (r *larkRepo) GetChatMembers(ctx context.Context, chatID string) ([]domain.Member, error) {
	members, err := r.client.GetChatMembers(chatID)
	if err != nil {
		return nil, err
	}

	var result []domain.Member
	for _, m := range members {
		result = append(result, domain.Member{
			UserID: m.MemberID,
			Name:   m.Name,
		})
	}
	return result, nil
}
