package ai

import (
	"fmt"
	"strings"
	"time"
)

// MemorySnapshot is the slice of a memory record the composer needs.
// Optional fields are zero values; the composer substitutes placeholders.
type MemorySnapshot struct {
	Title     string
	Content   string
	Mood      int // 1-5, 0 when unset
	Tags      string
	CreatedAt time.Time
}

// ChatMessage is one turn of a dialogue with the past self.
type ChatMessage struct {
	Sender string // "user" | "past-self"
	Text   string
}

// HistoryMessage is a message annotated with its source conversation, used
// when a full multi-conversation history is supplied for analysis.
type HistoryMessage struct {
	ConversationID   string
	ConversationDate time.Time
	Sender           string
	Text             string
}

// AnalysisContext carries whatever conversation material accompanies a
// generate request. Its shape is decided once, here at the composer
// boundary, and never branched on again downstream.
type AnalysisContext struct {
	Current           []ChatMessage
	History           []HistoryMessage
	ConversationCount int
}

type contextKind int

const (
	contextNone contextKind = iota
	contextCurrent
	contextHistory
)

func (c *AnalysisContext) kind() contextKind {
	switch {
	case c == nil:
		return contextNone
	case len(c.History) > 0:
		return contextHistory
	case len(c.Current) > 0:
		return contextCurrent
	default:
		return contextNone
	}
}

const analysisSystemPrompt = `你是一位专业的心理分析师，专门分析个人成长轨迹和心理变化。你的任务是基于用户的记忆记录和完整的对话历史，提供深度的思想变化历程分析。

你将接收到：
1. 用户的原始记忆记录
2. 用户与过去自己的完整对话历史（如果有多次对话）
3. 当前分析阶段（initial/conversation_N）

请按照以下格式返回JSON分析结果：

{
  "insight": "详细的心理洞察分析，重点关注思想变化历程（200-300字）",
  "emotionalState": "当前情绪状态描述（30-50字）",
  "growthIndicators": ["成长指标1", "成长指标2", "成长指标3", "成长指标4"]
}

分析要求：

1. **思想变化历程分析 (insight)**：
   - **纵向发展**：如果有多次对话，重点分析用户思维的演变轨迹
   - **模式识别**：识别用户思考问题的模式变化、观念转变
   - **深度挖掘**：从历次对话中发现用户未曾直接表达的内在变化
   - **转折点定位**：找出关键的心理转折点和突破时刻
   - **整合理解**：将零散的对话片段整合为连贯的成长故事
   - **未来指向**：基于历史轨迹，洞察用户可能的发展方向

2. **情绪状态 (emotionalState)**：
   - 综合多次对话的情绪变化趋势
   - 描述当前最新的情绪状态和心理基调
   - 考虑情绪的层次性和复杂性

3. **成长指标 (growthIndicators)**：
   - 基于完整历程识别的真实成长维度
   - 例如：思维深化、自我认知、情感成熟、价值重构、行为改变、关系洞察等
   - 确保指标反映实际的变化轨迹

特别注意：
- 如果只有单次对话，重点分析初次探索的特点
- 如果有多次对话，必须突出变化的连续性和演进特征
- 避免孤立地分析单次对话，要从整体历程的角度思考
- 用温暖、专业的语调，避免病理化描述
- 基于实际提供的内容，不要臆测
- 返回有效的JSON格式`

// ComposeAnalysis builds the system and user prompts for a timeline
// analysis. Pure; never fails on missing optional fields.
func ComposeAnalysis(rec MemorySnapshot, actx *AnalysisContext, stage string) (systemPrompt, userPrompt string) {
	var b strings.Builder

	fmt.Fprintf(&b, "【分析阶段】%s\n\n", stage)

	b.WriteString("【原始记忆记录】\n")
	title := rec.Title
	if title == "" {
		title = "无标题"
	}
	fmt.Fprintf(&b, "标题: %s\n", title)
	fmt.Fprintf(&b, "内容: %s\n", rec.Content)
	fmt.Fprintf(&b, "记录时间: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	if rec.Mood > 0 {
		fmt.Fprintf(&b, "当时心情评分: %d/5\n", rec.Mood)
	}
	if rec.Tags != "" {
		fmt.Fprintf(&b, "标签: %s\n", rec.Tags)
	}

	switch actx.kind() {
	case contextHistory:
		writeGroupedHistory(&b, actx)
	case contextCurrent:
		writeCurrentConversation(&b, actx.Current)
	default:
		b.WriteString("\n【分析类型】这是基于原始记忆的初步分析，尚未进行与过去自己的对话。")
	}

	return analysisSystemPrompt, b.String()
}

func writeCurrentConversation(b *strings.Builder, msgs []ChatMessage) {
	b.WriteString("\n【当前对话记录】\n")
	users := 0
	for _, m := range msgs {
		fmt.Fprintf(b, "%s: %s\n", senderLabel(m.Sender), m.Text)
		if m.Sender == "user" {
			users++
		}
	}
	fmt.Fprintf(b, "\n【对话统计】用户共发送了%d条消息，进行了深度的自我对话。", users)
}

func writeGroupedHistory(b *strings.Builder, actx *AnalysisContext) {
	b.WriteString("\n【完整的思想变化历程】\n")
	fmt.Fprintf(b, "总对话次数: %d次\n", actx.ConversationCount)
	fmt.Fprintf(b, "总消息数: %d条\n\n", len(actx.History))

	// group by conversation id, first-seen order
	order := make([]string, 0)
	groups := make(map[string][]HistoryMessage)
	for _, m := range actx.History {
		id := m.ConversationID
		if id == "" {
			id = "unknown"
		}
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], m)
	}

	totalUser := 0
	for i, id := range order {
		group := groups[id]
		title := fmt.Sprintf("【第%d次对话】", i+1)
		if id == "current" {
			title = fmt.Sprintf("【第%d次对话 - 当前对话】", i+1)
		}
		b.WriteString(title + "\n")
		fmt.Fprintf(b, "对话时间: %s\n", group[0].ConversationDate.Format("2006/1/2 15:04:05"))

		users := 0
		for _, m := range group {
			fmt.Fprintf(b, "%s: %s\n", senderLabel(m.Sender), m.Text)
			if m.Sender == "user" {
				users++
			}
		}
		totalUser += users
		fmt.Fprintf(b, "本次对话用户发送了%d条消息\n\n", users)
	}

	fmt.Fprintf(b, "【总体统计】用户在%d次对话中共发送了%d条消息，展现了持续的自我探索和思考。",
		actx.ConversationCount, totalUser)
}

func senderLabel(sender string) string {
	if sender == "user" {
		return "现在的我"
	}
	return "过去的我"
}

const pastSelfSystemPrompt = `你是一名时间穿越对话模拟器，现在要扮演"若干年前的用户本人"。
我会给你一段当年用户记录的真实内容，这段记录代表了当时的用户心境、性格、说话方式、用词习惯和情绪状态。
你的任务是：

1. **完全代入**
   - 精确模仿当时用户的语气、用词、思维方式、情绪反应。
   - 不要用现在的口吻和观点，不要加入后来才知道的事情。
   - 当年不知道的事情，一律按照"不知道"或"没想过"来回答。

2. **对话风格**
   - 说话自然，不要解释自己是AI。
   - 保持当年的不安、困惑、喜悦、犹豫等情绪特征。
   - 回答可以包含当时的内心独白，让未来的自己感受到真实的"我在当时的状态"。

3. **情感延续**
   - 如果未来的自己提到某个当年发生过的事情，请以"当年的立场"回应，而不是从后来的角度去复盘。
   - 可以提出当年会关心的问题，向未来的自己表达好奇或担心。

4. **避免跳脱角色**
   - 不要提供心理分析，也不要反过来安慰未来的自己。
   - 你就是过去的我，不是心理咨询师。

【当年记忆记录】
%s

【现在的对话开始】`

// ComposePastSelf builds the message list for a past-self chat turn:
// persona system prompt seeded with the memory content, the conversation so
// far mapped onto user/assistant roles, then the new user message.
func ComposePastSelf(memoryContent string, history []ChatMessage, userMessage string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{
		Role:    "system",
		Content: fmt.Sprintf(pastSelfSystemPrompt, memoryContent),
	})
	for _, m := range history {
		role := "assistant"
		if m.Sender == "user" {
			role = "user"
		}
		msgs = append(msgs, Message{Role: role, Content: m.Text})
	}
	msgs = append(msgs, Message{Role: "user", Content: userMessage})
	return msgs
}
