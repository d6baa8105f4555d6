package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

const (
	cmdLeaderboard = "言而有信排行"
	cmdStats       = "言而有信统计"
	cmdPromises    = "言而有信"
)

const renderWidth = 600

// CommandService handles the chat command surface: leaderboard, per-user
// promise listing, and detection statistics.
type CommandService struct {
	query     *usecase.Query
	messages  repo.MessageRepo
	renderer  repo.RenderRepo
	detectLog repo.DetectionLogRepo
}

// NewCommandService creates the command service. renderer may be nil; all
// image output then falls back to plain text.
func NewCommandService(query *usecase.Query, messages repo.MessageRepo, renderer repo.RenderRepo, detectLog repo.DetectionLogRepo) *CommandService {
	return &CommandService{
		query:     query,
		messages:  messages,
		renderer:  renderer,
		detectLog: detectLog,
	}
}

// Dispatch routes a message to a command handler. Returns false when the
// message is not a command, so it can flow into the detection pipeline.
func (s *CommandService) Dispatch(ctx context.Context, chatID, senderID, senderName string, segments []domain.Segment) bool {
	text := strings.TrimSpace(domain.PlainText(segments))

	switch {
	case text == cmdLeaderboard:
		s.handleLeaderboard(ctx, chatID)
	case text == cmdStats:
		s.handleStats(ctx, chatID)
	case strings.HasPrefix(text, cmdPromises):
		s.handlePromises(ctx, chatID, senderID, senderName, segments)
	default:
		return false
	}
	return true
}

func (s *CommandService) handleLeaderboard(ctx context.Context, chatID string) {
	entries := s.query.Leaderboard(usecase.DefaultLeaderboardSize)
	if len(entries) == 0 {
		s.reply(ctx, chatID, "目前还没有任何人的承诺记录哦。")
		return
	}

	html, err := renderTemplate(rankingTmpl, map[string]interface{}{"Entries": entries})
	if err == nil && s.sendAsImage(ctx, chatID, html) {
		return
	}
	if err != nil {
		fmt.Printf("[Command] Leaderboard template failed: %v\n", err)
	}

	// Plain text fallback
	var sb strings.Builder
	sb.WriteString("【言而有信排行】\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "第%d名 %s：%d 条承诺\n", e.Rank, e.Name, e.Count)
	}
	s.reply(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

func (s *CommandService) handlePromises(ctx context.Context, chatID, senderID, senderName string, segments []domain.Segment) {
	target := domain.FirstMention(segments)
	if target == nil {
		target = &domain.Member{UserID: senderID, Name: senderName}
	}

	name := target.Name
	if name == "" {
		name = s.query.DisplayNameOf(target.UserID)
	}
	if name == "" {
		name = "用户" + target.UserID
	}

	views := s.query.PromisesOf(target.UserID)
	if len(views) == 0 {
		s.reply(ctx, chatID, fmt.Sprintf("没有找到 %s 的承诺记录。", name))
		return
	}

	html, err := renderTemplate(userPromisesTmpl, map[string]interface{}{
		"Name":     name,
		"Promises": promiseRows(views),
	})
	if err == nil && s.sendAsImage(ctx, chatID, html) {
		return
	}
	if err != nil {
		fmt.Printf("[Command] Promise list template failed: %v\n", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "【%s 的承诺】\n", name)
	for i, row := range promiseRows(views) {
		fmt.Fprintf(&sb, "%d. %s（%s）%s\n", i+1, row.Content, row.Status, row.DueText)
	}
	s.reply(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

func (s *CommandService) handleStats(ctx context.Context, chatID string) {
	if s.detectLog == nil {
		s.reply(ctx, chatID, "统计功能未启用。")
		return
	}
	stats, err := s.detectLog.Stats(ctx)
	if err != nil {
		fmt.Printf("[Command] Failed to query detection stats: %v\n", err)
		s.reply(ctx, chatID, "统计查询失败，请稍后再试。")
		return
	}
	s.reply(ctx, chatID, fmt.Sprintf("【言而有信统计】共检测候选 %d 条，升级确认 %d 条，记录承诺 %d 条。",
		stats.Total, stats.Escalated, stats.Confirmed))
}

// sendAsImage renders the HTML and sends the PNG. Returns false when
// rendering is unavailable or failed, so the caller can fall back to text.
func (s *CommandService) sendAsImage(ctx context.Context, chatID, html string) bool {
	if s.renderer == nil {
		return false
	}
	png, err := s.renderer.RenderHTML(ctx, html, renderWidth)
	if err != nil {
		fmt.Printf("[Command] HTML render failed, falling back to text: %v\n", err)
		return false
	}
	if err := s.messages.SendImage(ctx, chatID, png); err != nil {
		fmt.Printf("[Command] Failed to send image: %v\n", err)
		return false
	}
	return true
}

func (s *CommandService) reply(ctx context.Context, chatID, text string) {
	if err := s.messages.SendText(ctx, chatID, text); err != nil {
		fmt.Printf("[Command] Failed to send reply: %v\n", err)
	}
}

// promiseRow is one rendered listing line.
type promiseRow struct {
	Content string
	Status  string
	DueText string
}

func promiseRows(views []usecase.PromiseView) []promiseRow {
	rows := make([]promiseRow, 0, len(views))
	for _, v := range views {
		row := promiseRow{Content: v.Content, Status: statusLabel(v.Status)}
		if v.DueAt != nil {
			row.DueText = "截止 " + v.DueAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	return rows
}

func statusLabel(status string) string {
	switch domain.PromiseStatus(status) {
	case domain.StatusDone:
		return "已提醒"
	case domain.StatusPending:
		return "进行中"
	default:
		return "已记录"
	}
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// The render timestamp shown in card footers.
func nowText() string {
	return time.Now().Format("2006-01-02 15:04")
}

var tmplFuncs = template.FuncMap{"now": nowText}

var rankingTmpl = template.Must(template.New("ranking").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { margin: 0; padding: 24px; background: #f5f6fa; font-family: "PingFang SC", "Microsoft YaHei", sans-serif; }
.card { background: #fff; border-radius: 12px; padding: 20px 24px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); }
h1 { font-size: 20px; margin: 0 0 16px; color: #2f3542; }
table { width: 100%; border-collapse: collapse; }
td { padding: 8px 4px; border-bottom: 1px solid #f1f2f6; font-size: 15px; color: #2f3542; }
.rank { width: 48px; font-weight: bold; color: #e1a106; }
.count { text-align: right; color: #57606f; }
.footer { margin-top: 12px; font-size: 12px; color: #a4b0be; text-align: right; }
</style></head>
<body><div class="card">
<h1>🏆 言而有信排行榜</h1>
<table>
{{range .Entries}}<tr><td class="rank">#{{.Rank}}</td><td>{{.Name}}</td><td class="count">{{.Count}} 条承诺</td></tr>
{{end}}</table>
<div class="footer">{{now}}</div>
</div></body>
</html>`))

var userPromisesTmpl = template.Must(template.New("promises").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { margin: 0; padding: 24px; background: #f5f6fa; font-family: "PingFang SC", "Microsoft YaHei", sans-serif; }
.card { background: #fff; border-radius: 12px; padding: 20px 24px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); }
h1 { font-size: 20px; margin: 0 0 16px; color: #2f3542; }
.item { padding: 10px 0; border-bottom: 1px solid #f1f2f6; }
.content { font-size: 15px; color: #2f3542; }
.meta { margin-top: 4px; font-size: 12px; color: #a4b0be; }
.status { display: inline-block; padding: 1px 8px; border-radius: 8px; background: #dff9fb; color: #0984e3; margin-right: 8px; }
.footer { margin-top: 12px; font-size: 12px; color: #a4b0be; text-align: right; }
</style></head>
<body><div class="card">
<h1>📋 {{.Name}} 的承诺</h1>
{{range .Promises}}<div class="item">
<div class="content">{{.Content}}</div>
<div class="meta"><span class="status">{{.Status}}</span>{{.DueText}}</div>
</div>
{{end}}<div class="footer">{{now}}</div>
</div></body>
</html>`))
