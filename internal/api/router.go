// internal/api/router.go
package api

import (
	"fmt"
	"os"

	"github.com/Corphon/ScriptWeaverMCP/internal/config"
	"github.com/Corphon/ScriptWeaverMCP/internal/di"
	"github.com/Corphon/ScriptWeaverMCP/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 确保临时目录存在
	os.MkdirAll(cfg.TempDir, 0755)

	// 获取依赖注入容器
	container := di.GetContainer()

	// ✅ 只从容器获取服务，不再创建新实例
	characterService, ok := container.Get("character").(*services.CharacterService)
	if !ok {
		return nil, fmt.Errorf("角色服务未正确初始化")
	}

	scriptService, ok := container.Get("script").(*services.ScriptService)
	if !ok {
		return nil, fmt.Errorf("剧本服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	imageService, ok := container.Get("image").(*services.ImageService)
	if !ok {
		return nil, fmt.Errorf("头像服务未正确初始化")
	}

	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		return nil, fmt.Errorf("LLM服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	// ✅ 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		characterService,
		scriptService,
		exportService,
		imageService,
		llmService,
		progressService,
		cfg.TempDir,
	)

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// WebSocket 支持
	r.GET("/ws/progress", handler.ProgressWebSocket)

	// ===============================
	// API路由
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/status", handler.Status)

		// 角色档案
		api.GET("/characters", handler.ListCharacters)
		api.GET("/characters/labels", handler.CharacterLabels)
		api.POST("/characters", handler.CreateCharacter)
		api.PUT("/characters/:index", handler.UpdateCharacter)
		api.DELETE("/characters/:index", handler.DeleteCharacter)
		api.POST("/characters/:index/portrait", handler.GeneratePortrait)

		// 剧本生成
		api.POST("/script/generate", handler.GenerateScript)
		api.POST("/script/continue", handler.ContinueScript)
		api.GET("/script/history", handler.ScriptHistory)
		api.POST("/script/restore", handler.RestoreScript)
		api.POST("/script/character/select", handler.SelectCharacter)
		api.GET("/script/character/current", handler.CurrentCharacter)

		// 导出
		api.POST("/export/text", handler.ExportText)
		api.POST("/export/pdf", handler.ExportPDF)
		api.GET("/export/download", handler.DownloadExport)
	}

	return r, nil
}
