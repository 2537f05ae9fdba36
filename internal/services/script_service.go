// internal/services/script_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/textsafe"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
)

// 剧本生成提示词模板
const scriptPromptTemplate = `你是一个经验丰富的剧本编剧助手。请根据以下设定，生成一段剧本片段：

标题: %s
角色档案:
%s
风格: %s
背景设定: %s
初始剧情: %s

要求：输出剧本格式，包含角色对话，环境描写，适当添加情绪提示词。
%s`

// systemPrompt 剧本创作的系统提示
const systemPrompt = "你是一个中文剧本创作专家。"

const (
	defaultTemperature = 0.9
	defaultMaxTokens   = 4000
	// 扩写请求使用更低的创意参数，让输出更可控
	expandTemperature = 0.7
	// 目标字数的接受窗口为 [W, W+100)
	lengthWindow = 100
)

// ScriptService 组装生成请求并管理草稿历史
type ScriptService struct {
	llm        *LLMService
	characters *CharacterService

	mu       sync.Mutex
	sessions map[string]*models.SessionState
}

// NewScriptService 创建剧本服务
func NewScriptService(llm *LLMService, characters *CharacterService) *ScriptService {
	return &ScriptService{
		llm:        llm,
		characters: characters,
		sessions:   make(map[string]*models.SessionState),
	}
}

// Generate 生成剧本并记录到会话历史
func (s *ScriptService) Generate(ctx context.Context, sessionID string, req models.ScriptRequest) (*models.ScriptDraft, error) {
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	lengthInstruction := ""
	if req.WordLimit > 0 {
		lengthInstruction = fmt.Sprintf(
			"请将剧本片段控制在 **%d 到 %d 字之间**（仅统计中文字符）。内容不要超出限制，避免重复或冗长描述。",
			req.WordLimit, req.WordLimit+lengthWindow)
	}

	formattedRoles := s.characters.FormatRolesForPrompt(req.CharacterIDs)
	if req.ManualRoles != "" {
		if formattedRoles != "" {
			formattedRoles += "\n\n手动添加角色:\n" + req.ManualRoles
		} else {
			formattedRoles = "手动添加角色:\n" + req.ManualRoles
		}
	}

	fullPrompt := fmt.Sprintf(scriptPromptTemplate,
		req.Title, formattedRoles, req.Style, req.Background, req.Prompt, lengthInstruction)
	if req.Tone != "" {
		fullPrompt += fmt.Sprintf("\n风格语气要求：%s", req.Tone)
	}

	script, err := s.complete(ctx, fullPrompt, temperature)
	if err != nil {
		return nil, fmt.Errorf("调用AI服务出错: %w", err)
	}

	if req.WordLimit > 0 {
		script = s.AdjustLength(ctx, script, req.WordLimit)
	}

	draft := s.recordDraft(sessionID, script)
	return draft, nil
}

// Continue 续写剧本，返回原文+续写内容
func (s *ScriptService) Continue(ctx context.Context, sessionID, text string, temperature float64, wordLimit int) (*models.ScriptDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("没有可续写的内容，请先生成剧本")
	}

	if temperature <= 0 {
		temperature = defaultTemperature
	}

	lengthInstruction := ""
	if wordLimit > 0 {
		lengthInstruction = fmt.Sprintf(
			"请将剧本片段控制在 **%d 到 %d 字之间**（仅统计中文字符）。内容不要超出限制，避免重复或冗长描述。",
			wordLimit, wordLimit+lengthWindow)
	}

	prompt := fmt.Sprintf("请继续续写上一段剧本，保持情节连贯：\n%s\n\n%s", text, lengthInstruction)

	continuation, err := s.complete(ctx, prompt, temperature)
	if err != nil {
		return nil, fmt.Errorf("调用AI服务出错: %w", err)
	}

	if wordLimit > 0 {
		continuation = s.AdjustLength(ctx, continuation, wordLimit)
	}

	fullText := text + "\n\n" + continuation
	wordCount := textsafe.CountIdeographs(fullText)

	return &models.ScriptDraft{
		Text:      fullText,
		WordCount: wordCount,
		CreatedAt: time.Now(),
	}, nil
}

// AdjustLength 调整剧本长度到 [wordLimit, wordLimit+100) 窗口
// 单遍策略：扩写和截断各最多执行一次，不做迭代循环
func (s *ScriptService) AdjustLength(ctx context.Context, script string, wordLimit int) string {
	if wordLimit <= 0 {
		return script
	}

	currentWords := textsafe.CountIdeographs(script)
	targetMin, targetMax := wordLimit, wordLimit+lengthWindow

	switch {
	case currentWords < targetMin:
		prompt := fmt.Sprintf("请将以下剧本扩充到%d-%d字(仅统计中文字符)，保持内容连贯:\n%s",
			targetMin, targetMax, script)

		expanded, err := s.complete(ctx, prompt, expandTemperature)
		if err != nil {
			// 扩写失败时保留原文，不向上传播错误
			utils.GetLogger().Warnf("剧本扩写失败，保留原文: %v", err)
			return script
		}
		return expanded

	case currentWords >= targetMax:
		return truncateBySentence(script, targetMax)

	default:
		return script
	}
}

// truncateBySentence 按整句贪心截断，绝不在句中截断
// 截断结果严格小于targetMax（接受窗口是半开区间）
// 第一句就超出窗口时仍保留它，避免返回空剧本
func truncateBySentence(script string, targetMax int) string {
	sentences := splitSentences(script)

	var sb strings.Builder
	charCount := 0
	for i, sentence := range sentences {
		sentenceWords := textsafe.CountIdeographs(sentence)
		if charCount+sentenceWords >= targetMax {
			if i == 0 {
				sb.WriteString(sentence)
			}
			break
		}
		sb.WriteString(sentence)
		charCount += sentenceWords
	}

	return strings.TrimSpace(sb.String())
}

// splitSentences 在句末标点（。！？）之后切分，标点保留在句尾
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	for _, r := range text {
		cur.WriteRune(r)
		if r == '。' || r == '！' || r == '？' {
			sentences = append(sentences, cur.String())
			cur.Reset()
		}
	}

	if cur.Len() > 0 {
		sentences = append(sentences, cur.String())
	}

	return sentences
}

// complete 执行一次补全并返回文本
func (s *ScriptService) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := s.llm.CreateChatCompletion(ctx, ChatCompletionRequest{
		Messages: []ChatCompletionMessage{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("AI服务未返回任何结果")
	}

	return resp.Choices[0].Message.Content, nil
}

// recordDraft 把生成结果追加到会话历史
func (s *ScriptService) recordDraft(sessionID, script string) *models.ScriptDraft {
	now := time.Now()
	wordCount := textsafe.CountIdeographs(script)

	draft := models.ScriptDraft{
		Label:     fmt.Sprintf("%s（%d字中文）", now.Format("2006-01-02 15:04:05"), wordCount),
		Text:      script,
		WordCount: wordCount,
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getSessionLocked(sessionID)
	session.History = append(session.History, draft)

	return &draft
}

// History 返回会话的草稿历史（追加顺序）
func (s *ScriptService) History(sessionID string) []models.ScriptDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getSessionLocked(sessionID)
	result := make([]models.ScriptDraft, len(session.History))
	copy(result, session.History)
	return result
}

// Restore 按标签从历史恢复草稿
func (s *ScriptService) Restore(sessionID, label string) (*models.ScriptDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getSessionLocked(sessionID)
	for _, draft := range session.History {
		if draft.Label == label {
			copied := draft
			return &copied, nil
		}
	}

	return nil, fmt.Errorf("历史记录不存在: %s", label)
}

// SelectCharacter 记录会话当前选中的角色索引
func (s *ScriptService) SelectCharacter(sessionID string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getSessionLocked(sessionID).CurrentCharIdx = index
}

// CurrentCharacter 返回会话当前选中的角色索引，未选中为-1
func (s *ScriptService) CurrentCharacter(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getSessionLocked(sessionID).CurrentCharIdx
}

// InvalidateCharacterSelection 角色删除或重排后重置所有会话的选中索引
func (s *ScriptService) InvalidateCharacterSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		session.CurrentCharIdx = -1
	}
}

func (s *ScriptService) getSessionLocked(sessionID string) *models.SessionState {
	if sessionID == "" {
		sessionID = "default"
	}

	session, exists := s.sessions[sessionID]
	if !exists {
		session = models.NewSessionState()
		s.sessions[sessionID] = session
	}
	return session
}
