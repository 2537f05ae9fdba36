// internal/models/export.go
package models

import (
	"fmt"
	"time"
)

// 导出状态
const (
	ExportStatusOK         = "ok"         // 完整导出
	ExportStatusDegraded   = "degraded"   // PDF转换模式（中文已转写）
	ExportStatusDowngraded = "downgraded" // PDF失败，已降级为文本
)

// ExportResult 导出产物
type ExportResult struct {
	FilePath  string    `json:"file_path"`
	FileName  string    `json:"file_name"`
	Format    string    `json:"format"` // txt / pdf
	FileSize  int64     `json:"file_size"`
	WordCount int       `json:"word_count"` // 仅统计中文字符
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// HumanFileSize 人类可读的文件大小
func (r *ExportResult) HumanFileSize() string {
	size := r.FileSize
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
