// internal/services/character_service_test.go
package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/storage"
)

func newTestCharacterService(t *testing.T) (*CharacterService, string) {
	t.Helper()

	dir := t.TempDir()
	fs, err := storage.NewFileStorage(dir)
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}

	return NewCharacterService(fs), dir
}

// TestCharacterAdd 基本添加与字段修剪
func TestCharacterAdd(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	created, err := svc.Add(models.Character{Name: "  张三  ", RoleType: " 主角 ", Age: "28"})
	if err != nil {
		t.Fatalf("添加角色失败: %v", err)
	}

	if created.Name != "张三" {
		t.Errorf("姓名应被修剪: got %q", created.Name)
	}
	if created.RoleType != "主角" {
		t.Errorf("角色类型应被修剪: got %q", created.RoleType)
	}
	if created.ID == "" {
		t.Error("新角色应分配ID")
	}
	if svc.Count() != 1 {
		t.Errorf("角色数量应为1: got %d", svc.Count())
	}
}

// TestCharacterAddEmptyName 空姓名拒绝
func TestCharacterAddEmptyName(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	if _, err := svc.Add(models.Character{Name: "   "}); err == nil {
		t.Error("空姓名应返回错误")
	}
	if svc.Count() != 0 {
		t.Error("失败的添加不应改变角色数量")
	}
}

// TestCharacterDuplicateDetection (姓名, 角色类型)大小写不敏感去重
func TestCharacterDuplicateDetection(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	if _, err := svc.Add(models.Character{Name: "Li", RoleType: "Hero"}); err != nil {
		t.Fatalf("首次添加失败: %v", err)
	}

	if _, err := svc.Add(models.Character{Name: "li", RoleType: "hero"}); err == nil {
		t.Error("大小写不同的重复角色应被拒绝")
	}
	if _, err := svc.Add(models.Character{Name: " Li ", RoleType: "Hero"}); err == nil {
		t.Error("带空白的重复角色应被拒绝")
	}

	// 同名不同角色类型允许
	if _, err := svc.Add(models.Character{Name: "Li", RoleType: "Villain"}); err != nil {
		t.Errorf("同名不同类型应允许添加: %v", err)
	}
}

// TestCharacterUpdatePreservesAvatar 更新档案时未提供新头像则保留原头像
func TestCharacterUpdatePreservesAvatar(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	created, err := svc.Add(models.Character{Name: "王五", RoleType: "配角"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateAvatarByIndex(0, "base64-image-data"); err != nil {
		t.Fatalf("更新头像失败: %v", err)
	}

	updated, err := svc.UpdateByIndex(0, models.Character{Name: "王五", RoleType: "配角", Age: "35"})
	if err != nil {
		t.Fatalf("更新角色失败: %v", err)
	}

	if updated.AvatarImage != "base64-image-data" {
		t.Error("未提供新头像时应保留原头像")
	}
	if updated.Age != "35" {
		t.Errorf("年龄应被更新: got %q", updated.Age)
	}
	if updated.ID != created.ID {
		t.Error("更新不应改变角色ID")
	}
}

// TestCharacterDeleteShiftsIndices 删除后后续索引前移
func TestCharacterDeleteShiftsIndices(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	for _, name := range []string{"甲", "乙", "丙"} {
		if _, err := svc.Add(models.Character{Name: name, RoleType: "角色"}); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := svc.DeleteByIndex(1)
	if err != nil {
		t.Fatalf("删除角色失败: %v", err)
	}
	if deleted != "乙" {
		t.Errorf("删除的角色应为乙: got %q", deleted)
	}

	if svc.Exists("乙", "角色") {
		t.Error("删除后角色不应存在")
	}

	// 原索引2的角色现在位于索引1
	c, err := svc.GetByIndex(1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "丙" {
		t.Errorf("索引前移错误: got %q, want 丙", c.Name)
	}

	if _, err := svc.DeleteByIndex(5); err == nil {
		t.Error("越界索引应返回错误")
	}
}

// TestCharacterPersistence 重新加载后档案和ID保持不变
func TestCharacterPersistence(t *testing.T) {
	svc, dir := newTestCharacterService(t)

	created, err := svc.Add(models.Character{Name: "赵六", RoleType: "反派", BackgroundStory: "神秘的过去"})
	if err != nil {
		t.Fatal(err)
	}

	fs, err := storage.NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	reloaded := NewCharacterService(fs)

	if reloaded.Count() != 1 {
		t.Fatalf("重新加载后角色数量应为1: got %d", reloaded.Count())
	}

	c, err := reloaded.GetByIndex(0)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != created.ID {
		t.Error("重新加载后ID应保持不变")
	}
	if c.BackgroundStory != "神秘的过去" {
		t.Errorf("背景故事丢失: got %q", c.BackgroundStory)
	}
}

// TestCharacterLoadTolerance 档案文件损坏时从空档案开始，不崩溃
func TestCharacterLoadTolerance(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, charactersFile), []byte("{not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	fs, err := storage.NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}

	svc := NewCharacterService(fs)
	if svc.Count() != 0 {
		t.Errorf("损坏的档案应按空档案处理: got %d", svc.Count())
	}

	// 仍可正常添加
	if _, err := svc.Add(models.Character{Name: "新角色"}); err != nil {
		t.Errorf("损坏档案恢复后应可添加角色: %v", err)
	}
}

// TestCharacterLabels 标签格式 index: name (role_type)
func TestCharacterLabels(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	svc.Add(models.Character{Name: "张三", RoleType: "主角"})
	svc.Add(models.Character{Name: "李四", RoleType: "配角"})

	labels := svc.Labels()
	if len(labels) != 2 {
		t.Fatalf("标签数量错误: got %d", len(labels))
	}
	if labels[0] != "0: 张三 (主角)" {
		t.Errorf("标签格式错误: got %q", labels[0])
	}
	if labels[1] != "1: 李四 (配角)" {
		t.Errorf("标签格式错误: got %q", labels[1])
	}
}

// TestFormatRolesForPrompt 未知ID跳过，已知ID渲染档案
func TestFormatRolesForPrompt(t *testing.T) {
	svc, _ := newTestCharacterService(t)

	created, err := svc.Add(models.Character{Name: "张三", RoleType: "主角", Age: "30"})
	if err != nil {
		t.Fatal(err)
	}

	block := svc.FormatRolesForPrompt([]string{created.ID, "no-such-id"})
	if block == "" {
		t.Fatal("已知ID应渲染出档案")
	}
	for _, want := range []string{"张三", "主角", "30"} {
		if !strings.Contains(block, want) {
			t.Errorf("档案内容缺少 %q: %q", want, block)
		}
	}
}
