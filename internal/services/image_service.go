// internal/services/image_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/ScriptWeaverMCP/internal/imagegen"
	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
)

// 千帆IRAG对prompt长度的限制约220字符，留出余量
const maxPortraitPromptLen = 200

// ImageService 生成角色头像并写回角色档案
type ImageService struct {
	client     *imagegen.Client
	characters *CharacterService
	progress   *ProgressService
}

// NewImageService 创建头像服务
func NewImageService(client *imagegen.Client, characters *CharacterService, progress *ProgressService) *ImageService {
	return &ImageService{
		client:     client,
		characters: characters,
		progress:   progress,
	}
}

// BuildPortraitPrompt 根据角色档案生成中文图片描述prompt
func BuildPortraitPrompt(c *models.Character) string {
	var parts []string

	if c.Age != "" {
		parts = append(parts, fmt.Sprintf("%s岁", c.Age))
	}
	if c.RoleType != "" {
		parts = append(parts, c.RoleType)
	}
	if c.Appearance != "" {
		parts = append(parts, fmt.Sprintf("外貌：%s", c.Appearance))
	}
	if c.Personality != "" {
		parts = append(parts, fmt.Sprintf("性格：%s", c.Personality))
	}

	// 艺术风格后缀
	parts = append(parts, "高质量人物肖像，数字艺术风格，细节丰富，专业摄影")

	prompt := fmt.Sprintf("%s的角色肖像，%s", c.Name, strings.Join(parts, "，"))

	// 限制prompt长度
	runes := []rune(prompt)
	if len(runes) > maxPortraitPromptLen {
		prompt = string(runes[:maxPortraitPromptLen]) + "..."
	}

	return prompt
}

// GeneratePortraitByIndex 为指定角色生成头像并保存到档案
// 返回base64编码的图片数据
func (s *ImageService) GeneratePortraitByIndex(ctx context.Context, index int) (string, error) {
	character, err := s.characters.GetByIndex(index)
	if err != nil {
		return "", err
	}

	prompt := BuildPortraitPrompt(character)
	utils.GetLogger().Infof("生成头像的prompt: %s", prompt)

	if s.progress != nil {
		s.progress.Publish("portrait", fmt.Sprintf("正在为 %s 生成头像", character.Name))
	}

	imageData, err := s.client.GenerateImage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("调用千帆API出错: %w", err)
	}

	if err := s.characters.UpdateAvatarByIndex(index, imageData); err != nil {
		return "", err
	}

	if s.progress != nil {
		s.progress.Publish("portrait", fmt.Sprintf("%s 的头像生成完成", character.Name))
	}

	return imageData, nil
}

// IsConfigured 头像服务是否已配置API密钥
func (s *ImageService) IsConfigured() bool {
	return s.client != nil && s.client.IsConfigured()
}
