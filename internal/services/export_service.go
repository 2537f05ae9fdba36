// internal/services/export_service.go
package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/textsafe"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
	"github.com/jung-kurt/gofpdf"
)

const (
	// 小于1MB的"字体文件"多半是Git LFS指针而不是真实字体
	minUsableFontSize = 1 << 20
	lfsPointerMark    = "version https://git-lfs.github.com"

	// 页面纵向游标超过该值后换页（A4，单位mm）
	pageBreakY = 250.0
	// 单行最大字符数，超出后按词贪心换行
	maxLineWidth = 85
	// 小于该字节数的PDF输出视为无效
	minValidPDFSize = 100
)

// ExportService 把生成的剧本导出为文本或PDF文件
// 文本导出完整保留内容；PDF导出尽力而为，失败时自动降级为文本
type ExportService struct {
	tempDir  string
	fontPath string
	progress *ProgressService
}

// NewExportService 创建导出服务
// progress可以为nil（不推送进度事件）
func NewExportService(tempDir, fontPath string, progress *ProgressService) *ExportService {
	return &ExportService{
		tempDir:  tempDir,
		fontPath: fontPath,
		progress: progress,
	}
}

func (s *ExportService) publish(message string) {
	if s.progress != nil {
		s.progress.Publish("export", message)
	}
}

// ExportText 导出UTF-8文本文件，内容逐字保留
func (s *ExportService) ExportText(text string) (*models.ExportResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("没有内容可导出，请先生成剧本内容")
	}

	s.publish("开始文本导出")

	now := time.Now()
	wordCount := textsafe.CountIdeographs(text)
	fileName := fmt.Sprintf("script_export_%s.txt", now.Format("20060102_150405"))
	filePath := filepath.Join(s.tempDir, fileName)

	divider := strings.Repeat("=", 60)

	header := fmt.Sprintf(`
%s
🎭 剧本导出 / Script Export
%s
📅 导出时间: %s
📊 内容字数: %d 字 (仅中文字符)
📄 格式说明: UTF-8编码，完全保留中文字符
%s

`, divider, divider, now.Format("2006年01月02日 15:04:05"), wordCount, divider)

	footer := fmt.Sprintf(`

%s
✅ 导出完成 / Export Complete
📝 文件格式: UTF-8 纯文本
💡 建议使用: 记事本、VS Code、或任何支持UTF-8的文本编辑器打开
📧 问题反馈: 如有问题请联系技术支持
%s
`, divider, divider)

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(text)
	buf.WriteString(footer)

	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("创建导出目录失败: %w", err)
	}

	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("写入导出文件失败: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("导出文件校验失败: %w", err)
	}

	result := &models.ExportResult{
		FilePath:  filePath,
		FileName:  fileName,
		Format:    "txt",
		FileSize:  info.Size(),
		WordCount: wordCount,
		Status:    models.ExportStatusOK,
		CreatedAt: now,
	}
	result.Message = fmt.Sprintf("文本格式导出成功！文件大小: %s，内容字数: %d 字（中文字符）",
		result.HumanFileSize(), wordCount)

	utils.GetLogger().Infof("文本文件创建成功: %s, 大小: %d bytes", filePath, info.Size())
	s.publish("文本导出完成")

	return result, nil
}

// ExportPDF 导出PDF文件
// 有可用中文字体时完整渲染；否则把正文转写为Latin-1安全文本并在文档中注明
// PDF生成失败或产物无效时自动降级为文本导出
func (s *ExportService) ExportPDF(text string) (*models.ExportResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("没有内容可导出，请先生成剧本内容")
	}

	s.publish("开始PDF导出")

	result, err := s.renderPDF(text)
	if err != nil {
		utils.GetLogger().Warnf("PDF生成失败，降级为文本导出: %v", err)
		return s.downgradeToText(text)
	}

	s.publish("PDF导出完成")
	return result, nil
}

// downgradeToText PDF失败后的降级路径，文本也失败时才报硬错误
func (s *ExportService) downgradeToText(text string) (*models.ExportResult, error) {
	textResult, textErr := s.ExportText(text)
	if textErr != nil {
		return nil, fmt.Errorf("PDF和文本导出都失败了: %w", textErr)
	}

	textResult.Status = models.ExportStatusDowngraded
	textResult.Message = "PDF生成失败，已自动生成文本格式"
	return textResult, nil
}

func (s *ExportService) renderPDF(text string) (*models.ExportResult, error) {
	now := time.Now()
	wordCount := textsafe.CountIdeographs(text)
	fileName := fmt.Sprintf("script_%s.pdf", now.Format("20060102_150405"))
	filePath := filepath.Join(s.tempDir, fileName)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	fontLoaded := false
	if s.fontUsable() {
		pdf.AddUTF8Font("SimHei", "", s.fontPath)
		if pdf.Err() {
			utils.GetLogger().Warnf("字体加载失败: %v", pdf.Error())
			pdf = gofpdf.New("P", "mm", "A4", "")
			pdf.AddPage()
		} else {
			pdf.SetFont("SimHei", "", 10)
			fontLoaded = true
		}
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	body := text
	if !fontLoaded {
		utils.GetLogger().Info("使用ASCII模式，中文字符将被转换", nil)
		pdf.SetFont("Arial", "", 10)
		body = textsafe.Sanitize(text)
	}

	// 标题
	if fontLoaded {
		pdf.CellFormat(0, 10, "剧本导出", "", 1, "C", false, 0, "")
	} else {
		pdf.CellFormat(0, 10, tr("Script Export (Chinese converted)"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// 转换模式下在文档里注明
	if !fontLoaded {
		pdf.CellFormat(0, 6, tr("Note: Chinese characters have been converted to pinyin/English."), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 6, tr("For perfect Chinese display, please use text export instead."), "", 1, "", false, 0, "")
		pdf.Ln(3)
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if pdf.GetY() > pageBreakY {
			pdf.AddPage()
		}

		s.renderLine(pdf, tr, line, i+1, fontLoaded)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("保存PDF失败: %w", err)
	}

	// 产物校验：文件必须存在且大小合理
	info, err := os.Stat(filePath)
	if err != nil || info.Size() <= minValidPDFSize {
		os.Remove(filePath)
		return nil, fmt.Errorf("PDF文件无效")
	}

	status := models.ExportStatusOK
	message := fmt.Sprintf("PDF导出成功！文件大小: %s，中文支持: 完整支持", humanSize(info.Size()))
	if !fontLoaded {
		status = models.ExportStatusDegraded
		message = fmt.Sprintf("PDF导出完成(转换模式)，文件大小: %s。中文已转换为拼音/英文，如需完美中文显示请使用文本导出",
			humanSize(info.Size()))
	}

	utils.GetLogger().Infof("PDF生成成功: %d bytes, 文件路径: %s", info.Size(), filePath)

	return &models.ExportResult{
		FilePath:  filePath,
		FileName:  fileName,
		Format:    "pdf",
		FileSize:  info.Size(),
		WordCount: wordCount,
		Status:    status,
		Message:   message,
		CreatedAt: now,
	}, nil
}

// renderLine 渲染单行内容
// 单行失败只写入占位说明，不中断整个文档
func (s *ExportService) renderLine(pdf *gofpdf.Fpdf, tr func(string) string, line string, lineNo int, fontLoaded bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Warnf("处理第%d行时出错: %v", lineNo, r)
			pdf.CellFormat(0, 6, fmt.Sprintf("[Line %d: Processing Error]", lineNo), "", 1, "", false, 0, "")
		}
	}()

	if strings.TrimSpace(line) == "" {
		// 空行只留一个小间隔
		pdf.Ln(3)
		return
	}

	for _, chunk := range wrapLine(line, maxLineWidth) {
		s.emitCell(pdf, tr, chunk, fontLoaded)
	}
}

// emitCell 写入一个文本单元，转换模式下剔除Latin-1之外的字符兜底
func (s *ExportService) emitCell(pdf *gofpdf.Fpdf, tr func(string) string, chunk string, fontLoaded bool) {
	if fontLoaded {
		pdf.CellFormat(0, 6, chunk, "", 1, "", false, 0, "")
		return
	}

	// Sanitize之后不应出现，保险起见再过滤一次
	if !textsafe.IsLatin1(chunk) {
		chunk = textsafe.StripNonLatin1(chunk)
	}
	pdf.CellFormat(0, 6, tr(chunk), "", 1, "", false, 0, "")
}

// wrapLine 超长行按词贪心换行，累计长度不超过宽度上限
func wrapLine(line string, width int) []string {
	if len([]rune(line)) <= width {
		return []string{line}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Split(line, " ") {
		wordLen := len([]rune(word)) + 1
		if currentLen+wordLen > width && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
		current.WriteString(word)
		current.WriteByte(' ')
		currentLen += wordLen
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// fontUsable 检查字体资产是否真实可用
// 大小不足或带LFS指针签名的文件是占位符，不能嵌入
func (s *ExportService) fontUsable() bool {
	info, err := os.Stat(s.fontPath)
	if err != nil {
		return false
	}

	if info.Size() < minUsableFontSize {
		utils.GetLogger().Warnf("字体文件太小，可能是指针文件: %s (%d bytes)", s.fontPath, info.Size())
		return false
	}

	f, err := os.Open(s.fontPath)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 100)
	n, _ := f.Read(header)
	if bytes.Contains(header[:n], []byte(lfsPointerMark)) {
		utils.GetLogger().Warnf("检测到Git LFS指针文件: %s", s.fontPath)
		return false
	}

	return true
}

func humanSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
