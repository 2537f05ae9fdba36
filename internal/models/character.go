// internal/models/character.go
package models

import "time"

// Character 角色档案
// 对外通过列表位置引用，内部使用稳定的ID标识
type Character struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name"`
	RoleType        string    `json:"role_type"`
	Age             string    `json:"age"`
	Appearance      string    `json:"appearance"`
	Personality     string    `json:"personality"`
	BackgroundStory string    `json:"background_story"`
	Habits          string    `json:"habits"`
	Relationships   string    `json:"relationships"`
	AvatarImage     string    `json:"avatar_image,omitempty"` // base64编码的头像图片，旧数据可能缺少该字段
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// HasAvatar 判断角色是否已有头像
func (c *Character) HasAvatar() bool {
	return c.AvatarImage != ""
}
