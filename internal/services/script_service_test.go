// internal/services/script_service_test.go
package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Corphon/ScriptWeaverMCP/internal/llm"
	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/textsafe"
)

// fakeProvider 按预设顺序返回响应的测试提供者
type fakeProvider struct {
	responses []string
	errOn     int // 第几次调用返回错误（从1开始），0表示不出错
	calls     int
}

func (p *fakeProvider) Initialize(config map[string]string) error { return nil }
func (p *fakeProvider) GetName() string                           { return "fake" }
func (p *fakeProvider) GetSupportedModels() []string              { return []string{"fake-model"} }

func (p *fakeProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.errOn > 0 && p.calls == p.errOn {
		return nil, fmt.Errorf("模拟的API错误")
	}

	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}

	return &llm.CompletionResponse{
		Text:         p.responses[idx],
		FinishReason: "stop",
		ModelName:    "fake-model",
	}, nil
}

func newTestScriptService(t *testing.T, provider llm.Provider) (*ScriptService, *CharacterService) {
	t.Helper()

	llmService := NewEmptyLLMService()
	llmService.SetProvider(provider, "fake")

	characters, _ := newTestCharacterService(t)
	return NewScriptService(llmService, characters), characters
}

// TestGenerateRecordsHistory 生成结果写入会话历史
func TestGenerateRecordsHistory(t *testing.T) {
	text := "第一幕。灯光亮起。"
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{text}})

	draft, err := svc.Generate(context.Background(), "s1", models.ScriptRequest{Title: "测试剧本"})
	if err != nil {
		t.Fatalf("生成剧本失败: %v", err)
	}

	if draft.Text != text {
		t.Errorf("生成内容错误: got %q", draft.Text)
	}
	if draft.Label == "" {
		t.Error("草稿应有标签")
	}
	if draft.WordCount != textsafe.CountIdeographs(text) {
		t.Errorf("字数统计错误: got %d", draft.WordCount)
	}

	history := svc.History("s1")
	if len(history) != 1 {
		t.Fatalf("历史应有1条记录: got %d", len(history))
	}
	if history[0].Text != text {
		t.Error("历史记录内容不匹配")
	}
}

// TestGenerateRegeneratesFreshly 相同的生成请求每次都要调用AI服务
// 重新生成的意义就是得到不同的剧本，不能命中缓存
func TestGenerateRegeneratesFreshly(t *testing.T) {
	provider := &fakeProvider{responses: []string{"第一次的剧本。", "第二次的剧本。"}}
	svc, _ := newTestScriptService(t, provider)

	req := models.ScriptRequest{Title: "重新生成测试"}

	first, err := svc.Generate(context.Background(), "s1", req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Generate(context.Background(), "s1", req)
	if err != nil {
		t.Fatal(err)
	}

	if provider.calls != 2 {
		t.Errorf("相同请求应各自调用一次AI服务: got %d 次调用", provider.calls)
	}
	if first.Text == second.Text {
		t.Errorf("重新生成不应返回缓存结果: 两次均为 %q", first.Text)
	}
	if len(svc.History("s1")) != 2 {
		t.Errorf("两次生成应产生两条历史记录: got %d", len(svc.History("s1")))
	}
}

// TestGenerateExpandsShortScript 字数不足时扩写一次，扩写结果作为最终输出
func TestGenerateExpandsShortScript(t *testing.T) {
	short := strings.Repeat("剧", 50) + "。"
	expanded := strings.Repeat("本", 320) + "。"
	provider := &fakeProvider{responses: []string{short, expanded}}
	svc, _ := newTestScriptService(t, provider)

	draft, err := svc.Generate(context.Background(), "s1", models.ScriptRequest{
		Title:     "扩写测试",
		WordLimit: 300,
	})
	if err != nil {
		t.Fatalf("生成剧本失败: %v", err)
	}

	if provider.calls != 2 {
		t.Errorf("应调用两次（生成+扩写）: got %d", provider.calls)
	}
	if draft.Text != expanded {
		t.Error("扩写结果应作为最终输出")
	}
}

// TestGenerateExpandFailureKeepsOriginal 扩写失败时保留原文，不报错
func TestGenerateExpandFailureKeepsOriginal(t *testing.T) {
	short := strings.Repeat("剧", 50) + "。"
	provider := &fakeProvider{responses: []string{short}, errOn: 2}
	svc, _ := newTestScriptService(t, provider)

	draft, err := svc.Generate(context.Background(), "s1", models.ScriptRequest{
		Title:     "扩写失败测试",
		WordLimit: 300,
	})
	if err != nil {
		t.Fatalf("扩写失败不应向上传播错误: %v", err)
	}

	if draft.Text != short {
		t.Error("扩写失败时应保留原文")
	}
}

// TestGenerateTruncatesLongScript 超长剧本按整句截断到窗口内
func TestGenerateTruncatesLongScript(t *testing.T) {
	// 60句，每句8个中文字符，共480字，超出 [300, 400) 窗口
	long := strings.Repeat("这是一个测试句子。", 60)
	provider := &fakeProvider{responses: []string{long}}
	svc, _ := newTestScriptService(t, provider)

	draft, err := svc.Generate(context.Background(), "s1", models.ScriptRequest{
		Title:     "截断测试",
		WordLimit: 300,
	})
	if err != nil {
		t.Fatalf("生成剧本失败: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("截断不应产生额外的API调用: got %d", provider.calls)
	}

	count := textsafe.CountIdeographs(draft.Text)
	if count >= 400 {
		t.Errorf("截断后字数应严格小于窗口上限400: got %d", count)
	}
	if !strings.HasSuffix(draft.Text, "。") {
		t.Errorf("截断应落在整句边界: 结尾为 %q", draft.Text[len(draft.Text)-3:])
	}
	if draft.Text == "" {
		t.Error("截断结果不应为空")
	}
}

// TestTruncateNeverEmpty 第一句就超出窗口时仍保留第一句
func TestTruncateNeverEmpty(t *testing.T) {
	oneSentence := strings.Repeat("长", 500) + "。"
	got := truncateBySentence(oneSentence, 400)
	if got == "" {
		t.Fatal("截断结果不应为空")
	}
	if got != oneSentence {
		t.Error("唯一的超长句应被完整保留")
	}
}

// TestSplitSentences 句末标点后切分，标点保留在句尾
func TestSplitSentences(t *testing.T) {
	got := splitSentences("第一句。第二句！第三句？残句")
	want := []string{"第一句。", "第二句！", "第三句？", "残句"}

	if len(got) != len(want) {
		t.Fatalf("切分数量错误: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第%d句错误: got %q, want %q", i, got[i], want[i])
		}
	}

	if sentences := splitSentences(""); len(sentences) != 0 {
		t.Errorf("空文本应切分为空: got %v", sentences)
	}
}

// TestContinueAppendsWithoutHistory 续写返回原文+续写内容，但不写入历史
func TestContinueAppendsWithoutHistory(t *testing.T) {
	continuation := "续写的内容。"
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{continuation}})

	original := "原有的剧本。"
	draft, err := svc.Continue(context.Background(), "s1", original, 0, 0)
	if err != nil {
		t.Fatalf("续写失败: %v", err)
	}

	if draft.Text != original+"\n\n"+continuation {
		t.Errorf("续写结果格式错误: got %q", draft.Text)
	}

	if history := svc.History("s1"); len(history) != 0 {
		t.Errorf("续写不应写入历史: got %d 条", len(history))
	}
}

// TestContinueEmptyText 没有可续写内容时报错
func TestContinueEmptyText(t *testing.T) {
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{"x"}})

	if _, err := svc.Continue(context.Background(), "s1", "  ", 0, 0); err == nil {
		t.Error("空文本续写应返回错误")
	}
}

// TestRestoreByLabel 按标签恢复历史草稿
func TestRestoreByLabel(t *testing.T) {
	text := "可恢复的剧本。"
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{text}})

	draft, err := svc.Generate(context.Background(), "s1", models.ScriptRequest{Title: "恢复测试"})
	if err != nil {
		t.Fatal(err)
	}

	restored, err := svc.Restore("s1", draft.Label)
	if err != nil {
		t.Fatalf("恢复草稿失败: %v", err)
	}
	if restored.Text != text {
		t.Error("恢复的内容不匹配")
	}

	if _, err := svc.Restore("s1", "不存在的标签"); err == nil {
		t.Error("未知标签应返回错误")
	}
}

// TestSessionIsolation 不同会话的历史互不可见
func TestSessionIsolation(t *testing.T) {
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{"会话一的剧本。", "会话二的剧本。"}})

	if _, err := svc.Generate(context.Background(), "a", models.ScriptRequest{Title: "甲"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Generate(context.Background(), "b", models.ScriptRequest{Title: "乙"}); err != nil {
		t.Fatal(err)
	}

	if len(svc.History("a")) != 1 || len(svc.History("b")) != 1 {
		t.Error("每个会话应只看到自己的历史")
	}
	if svc.History("a")[0].Text == svc.History("b")[0].Text {
		t.Error("两个会话的内容不应相同")
	}
}

// TestCharacterSelectionLifecycle 选中、查询与失效
func TestCharacterSelectionLifecycle(t *testing.T) {
	svc, _ := newTestScriptService(t, &fakeProvider{responses: []string{"x"}})

	if got := svc.CurrentCharacter("s1"); got != -1 {
		t.Errorf("初始选中索引应为-1: got %d", got)
	}

	svc.SelectCharacter("s1", 2)
	if got := svc.CurrentCharacter("s1"); got != 2 {
		t.Errorf("选中索引应为2: got %d", got)
	}

	// 其他会话不受影响
	if got := svc.CurrentCharacter("s2"); got != -1 {
		t.Errorf("其他会话选中索引应为-1: got %d", got)
	}

	svc.InvalidateCharacterSelection()
	if got := svc.CurrentCharacter("s1"); got != -1 {
		t.Errorf("失效后选中索引应为-1: got %d", got)
	}
}
