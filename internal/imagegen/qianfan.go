// internal/imagegen/qianfan.go
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 千帆ERNIE IRAG图像生成API
const defaultBaseURL = "https://qianfan.baidubce.com/v2/images/generations"

// ErrMissingAPIKey 未配置千帆API密钥
var ErrMissingAPIKey = errors.New("未配置千帆API密钥，请在环境变量中设置 QIANFAN_API_KEY")

// Client 调用千帆IRAG生成角色头像
type Client struct {
	apiKey  string
	baseURL string

	genClient      *http.Client // 图像生成请求
	downloadClient *http.Client // 图片下载请求
}

// NewClient 创建千帆图像客户端，apiKey可以为空（调用时报配置错误）
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		genClient:      &http.Client{Timeout: 60 * time.Second},
		downloadClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured 检查是否已配置API密钥
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateImage 生成图片并返回base64编码的图片数据
// prompt不应超过200字符，超出部分由调用方截断
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	requestBody := map[string]interface{}{
		"model":  "irag-1.0",
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024", // 适合头像的尺寸
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.genClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("网络请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("千帆API返回错误 (状态码 %d): %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("API响应格式错误: %w", err)
	}

	if len(response.Data) == 0 || response.Data[0].URL == "" {
		return "", errors.New("API返回数据异常，请检查prompt内容")
	}

	// 下载图片并转换为base64
	return c.downloadAsBase64(ctx, response.Data[0].URL)
}

func (c *Client) downloadAsBase64(ctx context.Context, imageURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("创建下载请求失败: %w", err)
	}

	resp, err := c.downloadClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("下载图片失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("下载图片失败 (状态码 %d)", resp.StatusCode)
	}

	imgData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取图片数据失败: %w", err)
	}

	return base64.StdEncoding.EncodeToString(imgData), nil
}
