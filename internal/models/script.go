// internal/models/script.go
package models

import "time"

// ScriptRequest 剧本生成请求参数
type ScriptRequest struct {
	Title        string   `json:"title"`
	CharacterIDs []string `json:"character_ids"`
	ManualRoles  string   `json:"manual_roles"`
	Style        string   `json:"style"`
	Background   string   `json:"background"`
	Prompt       string   `json:"prompt"`
	Tone         string   `json:"tone"`
	Temperature  float64  `json:"temperature"`
	WordLimit    int      `json:"word_limit"`
}

// ScriptDraft 一次生成的剧本草稿
type ScriptDraft struct {
	Label     string    `json:"label"` // 时间戳+字数，历史记录中的唯一标签
	Text      string    `json:"text"`
	WordCount int       `json:"word_count"` // 仅统计中文字符
	CreatedAt time.Time `json:"created_at"`
}

// SessionState 会话状态：草稿历史 + 当前选中角色
// 显式传递，避免进程级可变单例
type SessionState struct {
	History        []ScriptDraft `json:"history"`
	CurrentCharIdx int           `json:"current_char_idx"` // 删除角色后重置为-1
}

// NewSessionState 创建空会话状态
func NewSessionState() *SessionState {
	return &SessionState{CurrentCharIdx: -1}
}
