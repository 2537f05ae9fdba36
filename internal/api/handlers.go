// internal/api/handlers.go
package api

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Corphon/ScriptWeaverMCP/internal/models"
	"github.com/Corphon/ScriptWeaverMCP/internal/services"
	"github.com/gin-gonic/gin"
)

// Handler 处理所有HTTP请求
type Handler struct {
	characters *services.CharacterService
	script     *services.ScriptService
	export     *services.ExportService
	image      *services.ImageService
	llm        *services.LLMService
	progress   *services.ProgressService

	tempDir string
	resp    *ResponseHelper
}

// NewHandler 创建API处理器
func NewHandler(
	characters *services.CharacterService,
	script *services.ScriptService,
	export *services.ExportService,
	image *services.ImageService,
	llm *services.LLMService,
	progress *services.ProgressService,
	tempDir string,
) *Handler {
	return &Handler{
		characters: characters,
		script:     script,
		export:     export,
		image:      image,
		llm:        llm,
		progress:   progress,
		tempDir:    tempDir,
		resp:       NewResponseHelper(),
	}
}

// Status 服务状态
func (h *Handler) Status(c *gin.Context) {
	h.resp.Success(c, gin.H{
		"llm_ready":        h.llm.IsReady(),
		"llm_state":        h.llm.GetReadyState(),
		"llm_provider":     h.llm.GetProviderName(),
		"image_configured": h.image.IsConfigured(),
		"character_count":  h.characters.Count(),
	})
}

// ===============================
// 角色档案
// ===============================

type characterView struct {
	Index   int               `json:"index"`
	Preview string            `json:"preview"`
	Profile *models.Character `json:"profile"`
}

// ListCharacters 角色列表（插入顺序）
func (h *Handler) ListCharacters(c *gin.Context) {
	list := h.characters.List()

	views := make([]characterView, 0, len(list))
	for i, ch := range list {
		views = append(views, characterView{
			Index:   i,
			Preview: services.FormatProfile(ch),
			Profile: ch,
		})
	}

	h.resp.Success(c, views)
}

// CharacterLabels 下拉列表标签
func (h *Handler) CharacterLabels(c *gin.Context) {
	h.resp.Success(c, h.characters.Labels())
}

// CreateCharacter 添加角色
func (h *Handler) CreateCharacter(c *gin.Context) {
	var profile models.Character
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	created, err := h.characters.Add(profile)
	if err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.resp.Created(c, created, "角色 '"+created.Name+"' 添加成功！")
}

// UpdateCharacter 按索引更新角色
func (h *Handler) UpdateCharacter(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.resp.BadRequest(c, "无效的角色索引")
		return
	}

	var profile models.Character
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	updated, err := h.characters.UpdateByIndex(index, profile)
	if err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.resp.Success(c, updated, "角色 '"+updated.Name+"' 更新成功！")
}

// DeleteCharacter 按索引删除角色
// 删除后所有会话的"当前选中索引"都会失效
func (h *Handler) DeleteCharacter(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.resp.BadRequest(c, "无效的角色索引")
		return
	}

	name, err := h.characters.DeleteByIndex(index)
	if err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.script.InvalidateCharacterSelection()

	h.resp.Success(c, gin.H{"labels": h.characters.Labels()}, "角色 '"+name+"' 删除成功！")
}

// GeneratePortrait 为角色生成AI头像
func (h *Handler) GeneratePortrait(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.resp.BadRequest(c, "无效的角色索引")
		return
	}

	imageData, err := h.image.GeneratePortraitByIndex(c.Request.Context(), index)
	if err != nil {
		h.resp.InternalError(c, err.Error())
		return
	}

	h.resp.Success(c, gin.H{"avatar_image": imageData}, "图片生成成功！")
}

// ===============================
// 剧本生成
// ===============================

// GenerateScript 生成剧本
func (h *Handler) GenerateScript(c *gin.Context) {
	var req models.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	h.progress.Publish("generate", "开始生成剧本")

	draft, err := h.script.Generate(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.resp.InternalError(c, err.Error())
		return
	}

	h.progress.Publish("generate", "剧本生成完成")
	h.resp.Success(c, draft)
}

type continueRequest struct {
	Text        string  `json:"text"`
	Temperature float64 `json:"temperature"`
	WordLimit   int     `json:"word_limit"`
}

// ContinueScript 续写剧本
func (h *Handler) ContinueScript(c *gin.Context) {
	var req continueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	draft, err := h.script.Continue(c.Request.Context(), sessionID(c), req.Text, req.Temperature, req.WordLimit)
	if err != nil {
		h.resp.InternalError(c, err.Error())
		return
	}

	h.resp.Success(c, draft)
}

type selectCharacterRequest struct {
	Index int `json:"index"`
}

// SelectCharacter 记录会话当前选中的角色索引
func (h *Handler) SelectCharacter(c *gin.Context) {
	var req selectCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	if _, err := h.characters.GetByIndex(req.Index); err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.script.SelectCharacter(sessionID(c), req.Index)
	h.resp.Success(c, gin.H{"index": req.Index})
}

// CurrentCharacter 会话当前选中的角色，未选中时index为-1
func (h *Handler) CurrentCharacter(c *gin.Context) {
	index := h.script.CurrentCharacter(sessionID(c))

	data := gin.H{"index": index}
	if index >= 0 {
		if character, err := h.characters.GetByIndex(index); err == nil {
			data["profile"] = character
		}
	}

	h.resp.Success(c, data)
}

// ScriptHistory 会话草稿历史
func (h *Handler) ScriptHistory(c *gin.Context) {
	h.resp.Success(c, h.script.History(sessionID(c)))
}

type restoreRequest struct {
	Label string `json:"label"`
}

// RestoreScript 按标签恢复历史草稿
func (h *Handler) RestoreScript(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	draft, err := h.script.Restore(sessionID(c), req.Label)
	if err != nil {
		h.resp.NotFound(c, err.Error())
		return
	}

	h.resp.Success(c, draft)
}

// ===============================
// 导出
// ===============================

type exportRequest struct {
	Text string `json:"text"`
}

// ExportText 导出文本（推荐路径，完整保留中文）
func (h *Handler) ExportText(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	result, err := h.export.ExportText(req.Text)
	if err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.resp.Success(c, result, result.Message)
}

// ExportPDF 导出PDF（尽力而为，失败自动降级为文本）
func (h *Handler) ExportPDF(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	result, err := h.export.ExportPDF(req.Text)
	if err != nil {
		h.resp.BadRequest(c, err.Error())
		return
	}

	h.resp.Success(c, result, result.Message)
}

// DownloadExport 下载导出文件
// 只允许访问临时目录内的文件
func (h *Handler) DownloadExport(c *gin.Context) {
	fileName := c.Query("file")
	if fileName == "" {
		h.resp.BadRequest(c, "缺少file参数")
		return
	}

	// 拒绝路径穿越
	if fileName != filepath.Base(fileName) || strings.Contains(fileName, "..") {
		h.resp.BadRequest(c, "非法的文件名")
		return
	}

	c.FileAttachment(filepath.Join(h.tempDir, fileName), fileName)
}
