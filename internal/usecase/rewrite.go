package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

// Style selects the tone of a rewritten note.
type Style string

const (
	StyleCasual       Style = "casual"
	StyleProfessional Style = "professional"
	StyleHumorous     Style = "humorous"

	// DefaultAudience is used when a rewrite request names no audience.
	DefaultAudience = "科技爱好者"
)

var styleDescriptions = map[Style]string{
	StyleCasual:       "轻松活泼",
	StyleProfessional: "专业但易懂",
	StyleHumorous:     "幽默有趣",
}

// DefaultSystemPrompt instructs the model to answer with a single JSON note.
const DefaultSystemPrompt = `你是一个专业的小红书内容创作者，擅长将复杂的AI论文转化为通俗易懂、吸引眼球的小红书风格文章。

你的写作特点：
1. 标题要吸引眼球，使用emoji，带有悬念或惊叹感
2. 开头要有亲切的称呼（如"姐妹们！"、"家人们！"、"宝子们！"）
3. 正文口语化，短句为主，多用emoji点缀
4. 重点内容用emoji标记（✅、📍、💡、⭐等）
5. 结尾要有互动引导（码住、收藏等）
6. 适当使用流行语和网络热词
7. 专业术语要用大白话解释

请严格按照以下JSON格式输出：
{
  "title": "小红书标题（带emoji，20字以内）",
  "content": "正文内容（300-500字）",
  "tags": ["标签1", "标签2", "标签3", "标签4", "标签5"],
  "cover_text": ["封面文案1", "封面文案2", "封面文案3"]
}`

var (
	jsonObjectExpr = regexp.MustCompile(`(?s)\{.*\}`)

	fallbackTags      = []string{"AI论文", "人工智能", "科技前沿", "干货分享", "学习笔记"}
	fallbackCoverText = []string{"AI前沿", "深度解读", "建议收藏"}
	defaultEmojiList  = []string{"🔥", "💡", "✅", "📚", "⭐"}
)

// RewriteRequest selects the paper and tone of a rewrite.
type RewriteRequest struct {
	PaperID        string
	Style          Style
	TargetAudience string
}

// RewriterDeps wires the rewrite use case.
type RewriterDeps struct {
	Completer    ports.Completer
	Papers       ports.PaperRepository
	Notes        ports.NoteRepository
	SystemPrompt string
	Now          func() time.Time
	Logger       *slog.Logger
}

// Rewriter turns a stored paper into a short-form social note.
type Rewriter struct {
	completer    ports.Completer
	papers       ports.PaperRepository
	notes        ports.NoteRepository
	systemPrompt string
	now          func() time.Time
	logger       *slog.Logger
}

// NewRewriter constructs the rewrite use case.
func NewRewriter(deps RewriterDeps) *Rewriter {
	r := &Rewriter{
		completer:    deps.Completer,
		papers:       deps.Papers,
		notes:        deps.Notes,
		systemPrompt: deps.SystemPrompt,
		now:          deps.Now,
		logger:       deps.Logger,
	}
	if r.systemPrompt == "" {
		r.systemPrompt = DefaultSystemPrompt
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// Rewrite asks the model for a note about the paper and stores it. A reply
// that carries no parsable JSON object becomes a fallback note built from the
// raw text.
func (r *Rewriter) Rewrite(ctx context.Context, req RewriteRequest) (domain.Note, error) {
	if strings.TrimSpace(req.PaperID) == "" {
		return domain.Note{}, fmt.Errorf("paperId is required: %w", ErrInvalidInput)
	}
	if req.Style == "" {
		req.Style = StyleCasual
	}
	if _, ok := styleDescriptions[req.Style]; !ok {
		return domain.Note{}, fmt.Errorf("unknown style %q: %w", req.Style, ErrInvalidInput)
	}
	if strings.TrimSpace(req.TargetAudience) == "" {
		req.TargetAudience = DefaultAudience
	}
	if r.completer == nil {
		return domain.Note{}, fmt.Errorf("language model: %w", ErrMissingCredentials)
	}

	paper, err := r.papers.GetPaper(ctx, req.PaperID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("load paper: %w", err)
	}

	reply, err := r.completer.Complete(ctx, r.systemPrompt, buildPrompt(paper, req))
	if err != nil {
		return domain.Note{}, fmt.Errorf("complete rewrite: %w: %w", ErrUpstream, err)
	}

	draft, ok := parseDraft(reply)
	if !ok {
		r.logger.Warn("model reply is not a JSON note, using fallback", "paper_id", paper.ID)
		draft = fallbackDraft(paper, reply)
	}

	now := r.now()
	note, err := r.notes.CreateNote(ctx, domain.Note{
		PaperID:   paper.ID,
		Title:     draft.Title,
		Content:   draft.Content,
		Tags:      draft.Tags,
		CoverText: draft.CoverText,
		EmojiList: append([]string(nil), defaultEmojiList...),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

type noteDraft struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CoverText []string `json:"cover_text"`
}

func buildPrompt(paper domain.Paper, req RewriteRequest) string {
	title := "未知标题"
	if paper.PaperTitle != nil && *paper.PaperTitle != "" {
		title = *paper.PaperTitle
	}
	summary := paper.TweetText
	if paper.PaperAbstract != nil && *paper.PaperAbstract != "" {
		summary = *paper.PaperAbstract
	}

	var b strings.Builder
	b.WriteString("请将以下AI论文信息改写为小红书爆款文章：\n\n")
	fmt.Fprintf(&b, "论文标题：%s\n", title)
	fmt.Fprintf(&b, "论文摘要：%s\n", summary)
	fmt.Fprintf(&b, "原始推文：%s\n", paper.TweetText)
	fmt.Fprintf(&b, "点赞数：%d\n\n", paper.LikeCount)
	fmt.Fprintf(&b, "目标受众：%s\n", req.TargetAudience)
	fmt.Fprintf(&b, "风格偏好：%s\n\n", styleDescriptions[req.Style])
	b.WriteString("请生成一篇能引起共鸣的小红书文章。")
	return b.String()
}

// parseDraft decodes the outermost JSON object embedded in the reply.
func parseDraft(reply string) (noteDraft, bool) {
	raw := jsonObjectExpr.FindString(reply)
	if raw == "" {
		return noteDraft{}, false
	}
	var draft noteDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return noteDraft{}, false
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	if draft.CoverText == nil {
		draft.CoverText = []string{}
	}
	return draft, true
}

func fallbackDraft(paper domain.Paper, reply string) noteDraft {
	title := "重磅AI论文"
	if paper.PaperTitle != nil && *paper.PaperTitle != "" {
		title = *paper.PaperTitle
	}
	return noteDraft{
		Title:     "🔥 " + title,
		Content:   reply,
		Tags:      append([]string(nil), fallbackTags...),
		CoverText: append([]string(nil), fallbackCoverText...),
	}
}
