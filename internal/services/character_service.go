// internal/services/character_service.go
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/storage"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
	"github.com/google/uuid"
)

const charactersFile = "characters.json"

// roleTemplate 角色档案渲染模板（用于prompt和预览）
const roleTemplate = `%s (%s):
- 年龄: %s
- 外貌: %s
- 性格: %s
- 背景故事: %s
- 习惯/特点: %s
- 与其他角色关系: %s
`

// CharacterService 管理角色档案
// 内部使用稳定的ID标识角色，按位置索引的操作是兼容层：
// 删除会使后续索引前移，调用方持有的"当前索引"在删除后必须重置
type CharacterService struct {
	storage *storage.FileStorage

	mu         sync.RWMutex
	characters []*models.Character
}

// NewCharacterService 创建角色服务并加载已有档案
func NewCharacterService(fs *storage.FileStorage) *CharacterService {
	s := &CharacterService{storage: fs}
	s.load()
	return s
}

// load 加载角色档案，文件缺失或损坏时从空档案开始
func (s *CharacterService) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.storage.FileExists(charactersFile) {
		utils.GetLogger().Info("角色档案文件不存在，创建新的空档案", nil)
		return
	}

	var characters []*models.Character
	if err := s.storage.LoadJSONFile(charactersFile, &characters); err != nil {
		utils.GetLogger().Errorf("加载角色档案失败: %v", err)
		return
	}

	// 旧数据兼容：缺少ID的记录补发
	for _, c := range characters {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
	}

	s.characters = characters
	utils.GetLogger().Infof("成功加载角色档案，数量: %d", len(characters))
}

// saveLocked 保存全部角色档案，调用方必须持有写锁
// 保存失败只记录日志，不阻塞调用方（下次重启时该变更会丢失）
func (s *CharacterService) saveLocked() {
	if err := s.storage.SaveJSONFile(charactersFile, s.characters); err != nil {
		utils.GetLogger().Errorf("保存角色档案失败: %v", err)
		return
	}
	utils.GetLogger().Infof("角色档案已保存，数量: %d", len(s.characters))
}

// Add 添加角色，名字不能为空，(name, role_type)大小写不敏感去重
func (s *CharacterService) Add(profile models.Character) (*models.Character, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, fmt.Errorf("角色姓名不能为空")
	}

	if s.Exists(profile.Name, profile.RoleType) {
		return nil, fmt.Errorf("角色 '%s (%s)' 已存在", name, strings.TrimSpace(profile.RoleType))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := &models.Character{
		ID:              uuid.NewString(),
		Name:            name,
		RoleType:        strings.TrimSpace(profile.RoleType),
		Age:             strings.TrimSpace(profile.Age),
		Appearance:      strings.TrimSpace(profile.Appearance),
		Personality:     strings.TrimSpace(profile.Personality),
		BackgroundStory: strings.TrimSpace(profile.BackgroundStory),
		Habits:          strings.TrimSpace(profile.Habits),
		Relationships:   strings.TrimSpace(profile.Relationships),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.characters = append(s.characters, c)
	s.saveLocked()

	copied := *c
	return &copied, nil
}

// UpdateByIndex 按索引更新角色
// 未提供新头像时保留原有头像；ID和创建时间不变
func (s *CharacterService) UpdateByIndex(index int, profile models.Character) (*models.Character, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, fmt.Errorf("角色姓名不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.characters) {
		return nil, fmt.Errorf("角色索引无效: %d", index)
	}

	old := s.characters[index]

	avatar := profile.AvatarImage
	if avatar == "" {
		avatar = old.AvatarImage
	}

	updated := &models.Character{
		ID:              old.ID,
		Name:            name,
		RoleType:        strings.TrimSpace(profile.RoleType),
		Age:             strings.TrimSpace(profile.Age),
		Appearance:      strings.TrimSpace(profile.Appearance),
		Personality:     strings.TrimSpace(profile.Personality),
		BackgroundStory: strings.TrimSpace(profile.BackgroundStory),
		Habits:          strings.TrimSpace(profile.Habits),
		Relationships:   strings.TrimSpace(profile.Relationships),
		AvatarImage:     avatar,
		CreatedAt:       old.CreatedAt,
		UpdatedAt:       time.Now(),
	}

	s.characters[index] = updated
	s.saveLocked()

	copied := *updated
	return &copied, nil
}

// UpdateAvatarByIndex 按索引更新角色头像
func (s *CharacterService) UpdateAvatarByIndex(index int, imageData string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.characters) {
		return fmt.Errorf("角色索引无效: %d", index)
	}

	s.characters[index].AvatarImage = imageData
	s.characters[index].UpdatedAt = time.Now()
	s.saveLocked()

	utils.GetLogger().Infof("角色头像已更新: %s", s.characters[index].Name)
	return nil
}

// DeleteByIndex 按索引删除角色，后续索引整体前移一位
func (s *CharacterService) DeleteByIndex(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.characters) {
		return "", fmt.Errorf("角色索引无效: %d", index)
	}

	deletedName := s.characters[index].Name
	s.characters = append(s.characters[:index], s.characters[index+1:]...)
	s.saveLocked()

	utils.GetLogger().Infof("角色已删除: %s, 剩余角色数量: %d", deletedName, len(s.characters))
	return deletedName, nil
}

// GetByIndex 按索引获取角色副本
func (s *CharacterService) GetByIndex(index int) (*models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.characters) {
		return nil, fmt.Errorf("角色索引无效: %d", index)
	}

	copied := *s.characters[index]
	return &copied, nil
}

// GetByID 按ID获取角色副本
func (s *CharacterService) GetByID(id string) (*models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.characters {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("角色不存在: %s", id)
}

// List 返回全部角色的副本（保持插入顺序）
func (s *CharacterService) List() []*models.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Character, 0, len(s.characters))
	for _, c := range s.characters {
		copied := *c
		result = append(result, &copied)
	}
	return result
}

// Labels 返回下拉列表用的展示标签
func (s *CharacterService) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.characters))
	for i, c := range s.characters {
		labels = append(labels, fmt.Sprintf("%d: %s (%s)", i, c.Name, c.RoleType))
	}
	return labels
}

// Exists 检查角色是否存在，(name, role_type)大小写不敏感精确匹配
func (s *CharacterService) Exists(name, roleType string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	roleType = strings.ToLower(strings.TrimSpace(roleType))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.characters {
		if strings.ToLower(strings.TrimSpace(c.Name)) == name &&
			strings.ToLower(strings.TrimSpace(c.RoleType)) == roleType {
			return true
		}
	}
	return false
}

// Count 角色数量
func (s *CharacterService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.characters)
}

// FormatProfile 渲染单个角色档案文本
func FormatProfile(c *models.Character) string {
	return fmt.Sprintf(roleTemplate,
		c.Name, c.RoleType, c.Age, c.Appearance, c.Personality,
		c.BackgroundStory, c.Habits, c.Relationships)
}

// FormatRolesForPrompt 把选中的角色渲染为prompt用的角色设定块
// 未找到的ID直接跳过
func (s *CharacterService) FormatRolesForPrompt(ids []string) string {
	var blocks []string
	for _, id := range ids {
		c, err := s.GetByID(id)
		if err != nil {
			continue
		}
		blocks = append(blocks, FormatProfile(c))
	}
	return strings.Join(blocks, "\n")
}
