package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Mention is one @-mention carried by a received message.
type Mention struct {
	Key    string // placeholder key in the raw text, e.g. "@_user_1"
	UserID string // open_id
	Name   string
}

// Message is a received text message, already parsed.
type Message struct {
	ChatID     string
	MsgID      string
	ChatType   string // p2p, group
	Content    string // text with mention placeholders replaced by @names
	SenderID   string
	SenderType string // user, bot
	Mentions   []Mention
	CreateTime int64 // milliseconds Unix timestamp
}

// MessageHandler is the callback for received messages.
type MessageHandler func(msg *Message)

// Client is the Lark API client. It receives messages over a WebSocket
// event stream and sends through the REST API.
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new Lark client.
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
	}
}

// OnMessage sets the message handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects via WebSocket and blocks listening for messages.
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.larkCli = lark.NewClient(c.appID, c.appSecret)

	// Handler must return quickly so the SDK can ACK, otherwise the
	// platform retries the event.
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Lark] Starting WebSocket connection...")
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil {
		return
	}

	// Ignore the bot's own messages to prevent loops
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return
		}
	}

	// Only text messages feed the promise pipeline
	if rawMsg.MessageType == nil || *rawMsg.MessageType != "text" {
		return
	}

	msg := &Message{
		ChatID: *rawMsg.ChatId,
		MsgID:  *rawMsg.MessageId,
	}
	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if event.Event.Sender != nil {
		if event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
			msg.SenderID = *event.Event.Sender.SenderId.OpenId
		}
		if event.Event.Sender.SenderType != nil {
			msg.SenderType = *event.Event.Sender.SenderType
		}
	}

	mentionMap := make(map[string]string)
	for _, mention := range rawMsg.Mentions {
		m := Mention{}
		if mention.Key != nil {
			m.Key = *mention.Key
		}
		if mention.Id != nil && mention.Id.OpenId != nil {
			m.UserID = *mention.Id.OpenId
		}
		if mention.Name != nil {
			m.Name = *mention.Name
		}
		if m.Key != "" && m.Name != "" {
			mentionMap[m.Key] = m.Name
		}
		if m.UserID != "" {
			msg.Mentions = append(msg.Mentions, m)
		}
	}

	msg.Content = parseTextContent(*rawMsg.Content, mentionMap)

	fmt.Printf("[Lark] Received text from %s chat %s: %s\n", msg.ChatType, msg.ChatID, truncate(msg.Content, 50))

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// parseTextContent extracts the text field and replaces mention placeholders
// (@_user_1) with real names.
func parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

func replaceMentions(text string, mentionMap map[string]string) string {
	if len(mentionMap) == 0 {
		return text
	}
	result := text
	for key, name := range mentionMap {
		result = strings.ReplaceAll(result, key, "@"+name)
	}
	return result
}

// SendText sends a text message to a chat.
func (c *Client) SendText(chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	fmt.Printf("[Lark] Message sent to %s\n", chatID)
	return nil
}

// SendTextWithMention sends a text message prefixed with one @ mention.
// Format: <at user_id="ou_xxx">@name</at> text
func (c *Client) SendTextWithMention(chatID, text, userID, userName string) error {
	mentionText := fmt.Sprintf("<at user_id=\"%s\">@%s</at> %s", userID, userName, text)

	content := map[string]string{"text": mentionText}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send message with mention failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message with mention error: %s", resp.Msg)
	}

	fmt.Printf("[Lark] Message with mention sent to %s\n", chatID)
	return nil
}

// SendImage uploads a PNG and sends it as an image message.
func (c *Client) SendImage(chatID string, png []byte) error {
	uploadReq := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType(larkim.ImageTypeMessage).
			Image(bytes.NewReader(png)).
			Build()).
		Build()

	uploadResp, err := c.larkCli.Im.Image.Create(context.Background(), uploadReq)
	if err != nil {
		return fmt.Errorf("upload image failed: %w", err)
	}
	if !uploadResp.Success() {
		return fmt.Errorf("upload image error: %s", uploadResp.Msg)
	}

	content := map[string]string{"image_key": *uploadResp.Data.ImageKey}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeImage).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send image failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send image error: %s", resp.Msg)
	}

	fmt.Printf("[Lark] Image sent to %s\n", chatID)
	return nil
}

// ChatMember represents a member in a chat.
type ChatMember struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

// GetChatMembers retrieves all members of a chat, paginating as needed.
func (c *Client) GetChatMembers(chatID string) ([]*ChatMember, error) {
	var members []*ChatMember
	var pageToken string

	for {
		reqBuilder := larkim.NewGetChatMembersReqBuilder().
			MemberIdType("open_id").
			ChatId(chatID).
			PageSize(100)

		if pageToken != "" {
			reqBuilder = reqBuilder.PageToken(pageToken)
		}

		resp, err := c.larkCli.Im.ChatMembers.Get(context.Background(), reqBuilder.Build())
		if err != nil {
			return nil, fmt.Errorf("get chat members failed: %w", err)
		}
		if !resp.Success() {
			return nil, fmt.Errorf("get chat members error: %s", resp.Msg)
		}

		for _, item := range resp.Data.Items {
			member := &ChatMember{}
			if item.MemberId != nil {
				member.MemberID = *item.MemberId
			}
			if item.Name != nil {
				member.Name = *item.Name
			}
			members = append(members, member)
		}

		if resp.Data.PageToken == nil || *resp.Data.PageToken == "" {
			break
		}
		pageToken = *resp.Data.PageToken
	}

	return members, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
