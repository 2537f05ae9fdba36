// internal/app/app.go
package app

import (
	"fmt"

	"github.com/Corphon/ScriptWeaverMCP/internal/config"
	"github.com/Corphon/ScriptWeaverMCP/internal/di"
	"github.com/Corphon/ScriptWeaverMCP/internal/imagegen"
	"github.com/Corphon/ScriptWeaverMCP/internal/services"
	"github.com/Corphon/ScriptWeaverMCP/internal/storage"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"

	// 注册LLM提供者
	_ "github.com/Corphon/ScriptWeaverMCP/internal/llm/providers/deepseek"
)

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 1. 文件存储
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	// 2. 进度服务
	progressService := services.NewProgressService()
	container.Register("progress", progressService)

	// 3. LLM服务
	llmService, err := services.NewLLMService()
	if err != nil {
		return fmt.Errorf("初始化LLM服务失败: %w", err)
	}
	if !llmService.IsReady() {
		utils.GetLogger().Warnf("LLM服务未就绪: %s", llmService.GetReadyState())
	}
	container.Register("llm", llmService)

	// 4. 角色服务
	characterService := services.NewCharacterService(fileStorage)
	container.Register("character", characterService)

	// 5. 剧本服务
	scriptService := services.NewScriptService(llmService, characterService)
	container.Register("script", scriptService)

	// 6. 导出服务
	exportService := services.NewExportService(cfg.TempDir, cfg.FontPath, progressService)
	container.Register("export", exportService)

	// 7. 头像服务
	imageClient := imagegen.NewClient(cfg.QianfanAPIKey)
	imageService := services.NewImageService(imageClient, characterService, progressService)
	container.Register("image", imageService)

	return nil
}
