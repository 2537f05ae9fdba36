// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	TempDir   string `json:"temp_dir"`
	LogDir    string `json:"log_dir"`
	FontPath  string `json:"font_path"` // 可嵌入PDF的中文字体文件路径
	DebugMode bool   `json:"debug_mode"`

	// LLM相关配置
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`

	// 图像生成配置
	QianfanAPIKey string `json:"qianfan_api_key,omitempty"`
}

// Config 存储从环境变量加载的应用配置
type Config struct {
	Port           string
	DeepSeekAPIKey string
	QianfanAPIKey  string
	DataDir        string
	TempDir        string
	LogDir         string
	FontPath       string
	DebugMode      bool
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "7860"),
		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		QianfanAPIKey:  getEnv("QIANFAN_API_KEY", ""),
		DataDir:        getEnvPath("DATA_DIR", "data"),
		TempDir:        getEnvPath("TEMP_DIR", "temp"),
		LogDir:         getEnvPath("LOG_DIR", "logs"),
		FontPath:       getEnv("FONT_PATH", "simhei.ttf"),
		DebugMode:      getEnvBool("DEBUG_MODE", true),
	}

	if config.DeepSeekAPIKey == "" {
		log.Println("警告: 未设置 DEEPSEEK_API_KEY，剧本生成功能将不可用")
	}
	if config.QianfanAPIKey == "" {
		log.Println("警告: 未设置 QIANFAN_API_KEY，角色头像生成功能将不可用")
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:        baseConfig.Port,
		DataDir:     baseConfig.DataDir,
		TempDir:     baseConfig.TempDir,
		LogDir:      baseConfig.LogDir,
		FontPath:    baseConfig.FontPath,
		DebugMode:   baseConfig.DebugMode,
		LLMProvider: "deepseek",
		LLMConfig: map[string]string{
			"api_key":       baseConfig.DeepSeekAPIKey,
			"default_model": "deepseek-chat",
		},
		QianfanAPIKey: baseConfig.QianfanAPIKey,
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 保留文件中的LLM设置，基础配置以环境变量为准
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.TempDir = baseConfig.TempDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.FontPath = baseConfig.FontPath
				savedConfig.DebugMode = baseConfig.DebugMode

				if savedConfig.LLMConfig != nil && savedConfig.LLMConfig["api_key"] == "" {
					savedConfig.LLMConfig["api_key"] = baseConfig.DeepSeekAPIKey
				}
				if savedConfig.QianfanAPIKey == "" {
					savedConfig.QianfanAPIKey = baseConfig.QianfanAPIKey
				}

				currentConfig = &savedConfig
			}
		}
	}

	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return &AppConfig{
			Port:        baseConfig.Port,
			DataDir:     baseConfig.DataDir,
			TempDir:     baseConfig.TempDir,
			LogDir:      baseConfig.LogDir,
			FontPath:    baseConfig.FontPath,
			DebugMode:   baseConfig.DebugMode,
			LLMProvider: "deepseek",
			LLMConfig: map[string]string{
				"api_key": baseConfig.DeepSeekAPIKey,
			},
			QianfanAPIKey: baseConfig.QianfanAPIKey,
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置
func UpdateLLMConfig(provider string, config map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = config

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
