// internal/textsafe/sanitizer_test.go
package textsafe

import (
	"strings"
	"testing"
)

// TestSanitizeASCIIPassthrough 纯ASCII文本原样通过
func TestSanitizeASCIIPassthrough(t *testing.T) {
	input := "Hello, world! 123"
	if got := Sanitize(input); got != input {
		t.Errorf("ASCII文本不应被修改: got %q, want %q", got, input)
	}
}

// TestSanitizeAlwaysLatin1 任何输入的输出都不含Latin-1之外的字符
func TestSanitizeAlwaysLatin1(t *testing.T) {
	inputs := []string{
		"",
		"你好，世界。这是一个测试！",
		"混合 mixed 内容 with ASCII",
		"标点：（）【】《》“引号”…—",
		"生僻字龘龘龘",
		"日本語のテキスト", // 非中文的多字节字符
		"emoji 🎭 也要处理",
	}

	for _, input := range inputs {
		got := Sanitize(input)
		for _, r := range got {
			if r > 255 {
				t.Errorf("Sanitize(%q) 输出包含非Latin-1字符 %q: %q", input, r, got)
				break
			}
		}
	}
}

// TestSanitizeLexicon 常用词按拼音词表替换
func TestSanitizeLexicon(t *testing.T) {
	if got := Sanitize("什么"); got != "shenme" {
		t.Errorf("词表替换错误: got %q, want %q", got, "shenme")
	}
}

// TestSanitizePunctuation 中文标点转换为ASCII对应符号
func TestSanitizePunctuation(t *testing.T) {
	got := Sanitize("（测试）")
	if !strings.HasPrefix(got, "(") || !strings.HasSuffix(got, ")") {
		t.Errorf("中文括号应转换为ASCII括号: got %q", got)
	}
}

// TestSanitizeUnknownIdeographs 词表外的中文字符变为[CN]标记，连续标记合并
func TestSanitizeUnknownIdeographs(t *testing.T) {
	got := Sanitize("龘龘龘")
	if got != "[CN]" {
		t.Errorf("连续未知中文字符应合并为单个标记: got %q", got)
	}
}

// TestSanitizeIdempotent 已经安全的输出再次处理结果不变
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"你好，世界。这是测试！",
		"mixed 混合 content",
		"龘 和 ascii",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize应当幂等: Sanitize(%q)=%q, 再次处理=%q", input, once, twice)
		}
	}
}

// TestCountIdeographs 字数只统计中文字符，不含标点、字母和数字
func TestCountIdeographs(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello world", 0},
		{"你好, world! 123", 2},
		{"你好，世界。", 4},
		{"中文mixed英文", 4},
	}

	for _, tt := range tests {
		if got := CountIdeographs(tt.input); got != tt.want {
			t.Errorf("CountIdeographs(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// TestIsLatin1 边界值检查
func TestIsLatin1(t *testing.T) {
	if !IsLatin1("plain ascii") {
		t.Error("纯ASCII应当是Latin-1")
	}
	if !IsLatin1("café") {
		t.Error("U+00E9在Latin-1范围内")
	}
	if IsLatin1("中文") {
		t.Error("中文字符不在Latin-1范围内")
	}
}

// TestStripNonLatin1 超出范围的字符被剔除，其余保留
func TestStripNonLatin1(t *testing.T) {
	if got := StripNonLatin1("a中b文c"); got != "abc" {
		t.Errorf("StripNonLatin1 = %q, want %q", got, "abc")
	}
	if got := StripNonLatin1("unchanged"); got != "unchanged" {
		t.Errorf("Latin-1文本不应被修改: got %q", got)
	}
}
