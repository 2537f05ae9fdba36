// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/Corphon/ScriptWeaverMCP/internal/config"
	"github.com/Corphon/ScriptWeaverMCP/internal/llm"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
)

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	cache         *LLMCache
	isReady       bool
	readyState    string
}

// LLMCache 响应缓存，避免重复请求
type LLMCache struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
}

type CacheEntry struct {
	Response  ChatCompletionResponse
	CreatedAt time.Time
}

// ChatCompletionRequest 聊天补全请求
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens"`
}

// ChatCompletionMessage 聊天消息
type ChatCompletionMessage struct {
	Role    string
	Content string
}

// ChatCompletionResponse 聊天补全响应
type ChatCompletionResponse struct {
	ID      string
	Choices []ChatCompletionChoice
	Usage   Usage
}

type ChatCompletionChoice struct {
	Message      ChatCompletionMessage
	FinishReason string
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewLLMService 根据当前配置创建LLM服务
func NewLLMService() (*LLMService, error) {
	cfg := config.GetCurrentConfig()

	service := &LLMService{
		cache: &LLMCache{
			cache:      make(map[string]*CacheEntry),
			expiration: 10 * time.Minute,
		},
		readyState: "未初始化",
	}

	if cfg.LLMConfig == nil || cfg.LLMConfig["api_key"] == "" {
		service.readyState = "未配置API密钥"
		return service, nil
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		service.readyState = fmt.Sprintf("提供者初始化失败: %v", err)
		return service, nil
	}

	service.provider = provider
	service.providerName = cfg.LLMProvider
	service.isReady = true
	service.readyState = "就绪"

	return service, nil
}

// NewEmptyLLMService 创建未配置的空服务（测试和降级用）
func NewEmptyLLMService() *LLMService {
	return &LLMService{
		cache: &LLMCache{
			cache:      make(map[string]*CacheEntry),
			expiration: 10 * time.Minute,
		},
		readyState: "未配置",
	}
}

// IsReady 检查服务是否可用
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil
}

// GetReadyState 返回服务状态描述
func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.readyState
}

// GetProviderName 返回当前提供者名称
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// SetProvider 注入提供者（测试用）
func (s *LLMService) SetProvider(provider llm.Provider, name string) {
	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	s.provider = provider
	s.providerName = name
	s.isReady = provider != nil
	if s.isReady {
		s.readyState = "就绪"
	}
}

// CreateChatCompletion 执行一次聊天补全
func (s *LLMService) CreateChatCompletion(ctx context.Context, request ChatCompletionRequest) (ChatCompletionResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	s.providerMutex.RUnlock()

	if provider == nil {
		return ChatCompletionResponse{}, fmt.Errorf("AI服务未配置: %s", s.GetReadyState())
	}

	// 拆分系统与用户提示
	var systemContent, userContent string
	for _, msg := range request.Messages {
		switch msg.Role {
		case RoleSystem:
			systemContent = msg.Content
		case RoleUser:
			userContent = msg.Content
		default:
			utils.GetLogger().Warn("未知的消息角色", map[string]interface{}{"role": msg.Role})
		}
	}

	// 只缓存确定性请求。temperature>0时调用方期待每次得到不同的结果，
	// 返回缓存会让"重新生成"变成空操作
	cacheable := request.Temperature == 0

	cacheKey := s.generateCacheKey(userContent, systemContent, request.Model, request.Temperature)

	if cacheable {
		if cached, ok := s.cache.get(cacheKey); ok {
			return cached, nil
		}
	}

	req := llm.CompletionRequest{
		Model:        request.Model,
		Temperature:  float32(request.Temperature),
		MaxTokens:    request.MaxTokens,
		SystemPrompt: systemContent,
		Prompt:       userContent,
	}

	resp, err := provider.CompleteText(ctx, req)
	if err != nil {
		return ChatCompletionResponse{}, err
	}

	result := ChatCompletionResponse{
		ID: resp.ModelName + "-" + s.providerName,
		Choices: []ChatCompletionChoice{
			{
				Message: ChatCompletionMessage{
					Role:    RoleAssistant,
					Content: resp.Text,
				},
				FinishReason: resp.FinishReason,
			},
		},
		Usage: Usage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.TokensUsed,
		},
	}

	if cacheable {
		s.cache.set(cacheKey, result)
	}

	return result, nil
}

func (s *LLMService) generateCacheKey(prompt, systemPrompt, model string, temperature float64) string {
	h := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%.2f", prompt, systemPrompt, model, temperature)))
	return hex.EncodeToString(h[:])
}

func (c *LLMCache) get(key string) (ChatCompletionResponse, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || time.Since(entry.CreatedAt) > c.expiration {
		return ChatCompletionResponse{}, false
	}

	return entry.Response, true
}

func (c *LLMCache) set(key string, response ChatCompletionResponse) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// 简单的容量控制
	if len(c.cache) >= 200 {
		for k, entry := range c.cache {
			if time.Since(entry.CreatedAt) > c.expiration {
				delete(c.cache, k)
			}
		}
	}

	c.cache[key] = &CacheEntry{
		Response:  response,
		CreatedAt: time.Now(),
	}
}
