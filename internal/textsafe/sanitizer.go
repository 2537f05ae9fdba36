// internal/textsafe/sanitizer.go
package textsafe

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// 中文标点到ASCII的替换表
// 有序切片，保证替换顺序稳定
var punctuationTable = []struct {
	from string
	to   string
}{
	{"：", ": "}, {"，", ", "}, {"。", ". "}, {"？", "? "}, {"！", "! "},
	{"（", "("}, {"）", ")"}, {"【", "["}, {"】", "]"}, {"『", "["}, {"』", "]"},
	{"“", "\""}, {"”", "\""}, {"‘", "'"}, {"’", "'"},
	{"—", "-"}, {"–", "-"}, {"…", "..."}, {"、", ", "},
	{"；", "; "}, {"｜", "|"}, {"〈", "<"}, {"〉", ">"},
	{"《", "<"}, {"》", ">"}, {"「", "["}, {"」", "]"},
}

// cnMarker 未映射中文字符的占位标记
const cnMarker = "[CN]"

var (
	markerRunRE     = regexp.MustCompile(`(?:\[CN\]){2,}`)
	whitespaceRunRE = regexp.MustCompile(`\s+`)

	// 拼音词表按字符长度降序排列，先替换长词避免被单字拆散
	sortedLexicon []lexiconEntry
)

type lexiconEntry struct {
	word   string
	pinyin string
}

func init() {
	sortedLexicon = make([]lexiconEntry, 0, len(pinyinLexicon))
	for word, py := range pinyinLexicon {
		sortedLexicon = append(sortedLexicon, lexiconEntry{word: word, pinyin: py})
	}
	sort.SliceStable(sortedLexicon, func(i, j int) bool {
		li, lj := len([]rune(sortedLexicon[i].word)), len([]rune(sortedLexicon[j].word))
		if li != lj {
			return li > lj
		}
		return sortedLexicon[i].word < sortedLexicon[j].word
	})
}

// Sanitize 将任意Unicode文本转换为Latin-1可渲染的表示
// 总是返回结果，内部出错时退回纯ASCII的安全方案
func Sanitize(text string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = asciiFallback(text)
		}
	}()

	if text == "" {
		return ""
	}

	// 1. 标点替换
	cleaned := text
	for _, p := range punctuationTable {
		cleaned = strings.ReplaceAll(cleaned, p.from, p.to)
	}

	// 2. 常用词拼音替换（长词优先）
	for _, e := range sortedLexicon {
		cleaned = strings.ReplaceAll(cleaned, e.word, e.pinyin)
	}

	// 3. 逐字符处理剩余内容
	var sb strings.Builder
	sb.Grow(len(cleaned))
	for _, r := range cleaned {
		switch {
		case r <= 255:
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(r)
		case r >= 0x4E00 && r <= 0x9FFF:
			sb.WriteString(cnMarker)
		default:
			sb.WriteByte('?')
		}
	}

	// 4. 合并连续标记与空白
	out := markerRunRE.ReplaceAllString(sb.String(), cnMarker)
	out = whitespaceRunRE.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// asciiFallback 最保守的备用方案：ASCII之外的字符全部替换为[?]标记
// 每个被丢弃的字符都留下痕迹，不做静默删除
func asciiFallback(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r < 128 {
			sb.WriteRune(r)
		} else {
			sb.WriteString("[?]")
		}
	}
	return sb.String()
}

// CountIdeographs 统计中文字符数（CJK基本区，不含标点）
// 剧本的"字数"指标只按此计数
func CountIdeographs(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			count++
		}
	}
	return count
}

// IsLatin1 检查文本是否可用单字节Latin-1编码渲染
func IsLatin1(text string) bool {
	for _, r := range text {
		if r > 255 {
			return false
		}
	}
	return true
}

// StripNonLatin1 去掉超出Latin-1范围的字符
// 经过Sanitize后不应出现，仅作为渲染前的最后防线
func StripNonLatin1(text string) string {
	if IsLatin1(text) {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r <= 255 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
