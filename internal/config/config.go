package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MilvusConfig 定义了 Milvus 向量数据库的连接和集合配置。
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus 服务地址
	CollectionName string `yaml:"collectionName"` // 文档集合名称
	VectorField    string `yaml:"vectorField"`    // 向量字段名称
	Dim            int    `yaml:"dim"`            // 向量维度
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 任务产物存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
	PublicURL string `yaml:"publicURL"` // 对外可访问的基准 URL (例如: "https://files.colabi.app")
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address    string `yaml:"address"`    // MongoDB 服务器地址
	Username   string `yaml:"username"`   // 用户名
	Password   string `yaml:"password"`   // 密码
	Database   string `yaml:"database"`   // 数据库名称
	Collection string `yaml:"collection"` // 聊天会话集合名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`   // Kafka Broker 地址列表
	TaskTopic string   `yaml:"taskTopic"` // 任务分发主题
	GroupID   string   `yaml:"groupID"`   // 消费者组 ID
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	MySQL   MySQLConfig  `yaml:"mysql"`   // MySQL 数据库配置
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 向量数据库配置
	MinIO   MinIOConfig  `yaml:"minio"`   // MinIO 对象存储配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig  `yaml:"kafka"`   // Kafka 消息队列配置
}

// ModelConfig 包含单个模型提供商的访问配置。
type ModelConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 基准 URL (仅 Ollama 等本地服务需要)
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider string      `yaml:"provider"` // LLM提供商 ("openai", "gemini", "ollama")
	OpenAI   ModelConfig `yaml:"openai"`   // OpenAI 模型配置
	Gemini   ModelConfig `yaml:"gemini"`   // Gemini 模型配置
	Ollama   ModelConfig `yaml:"ollama"`   // Ollama 模型配置
}

// EmbeddingConfig 包含了不同Embedding提供商的配置。
type EmbeddingConfig struct {
	Provider string      `yaml:"provider"` // Embedding提供商 ("openai", "google")
	OpenAI   ModelConfig `yaml:"openai"`   // OpenAI 模型配置
	Google   ModelConfig `yaml:"google"`   // Google 模型配置
}

// ToolsConfig 包含了各个外部工具提供商的访问凭证。
type ToolsConfig struct {
	SerperAPIKey         string `yaml:"serperAPIKey"`         // Google Serper 搜索 API 密钥
	SerpAPIKey           string `yaml:"serpAPIKey"`           // SerpApi (Google Trends) API 密钥
	OpenWeatherMapAPIKey string `yaml:"openWeatherMapAPIKey"` // OpenWeatherMap API 密钥
	YoutubeAPIKey        string `yaml:"youtubeAPIKey"`        // YouTube Data API 密钥
	RedditClientID       string `yaml:"redditClientID"`       // Reddit 应用客户端 ID
	RedditClientSecret   string `yaml:"redditClientSecret"`   // Reddit 应用客户端 Secret
	DalleAPIKey          string `yaml:"dalleAPIKey"`          // OpenAI DALL·E 图像生成 API 密钥
	ZapierAPIKey         string `yaml:"zapierAPIKey"`         // Zapier NLA API 密钥
	ZapierExposedURL     string `yaml:"zapierExposedURL"`     // Zapier exposed actions 列表 URL
}

// AuthConfig 用于配置 API 认证。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
	Address     string `yaml:"address"`     // HTTP 监听地址 (例如: ":8080")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Auth      AuthConfig      `yaml:"auth"`      // 认证配置
	LLM       LLMConfig       `yaml:"llm"`       // LLM 配置部分
	Embedding EmbeddingConfig `yaml:"embedding"` // Embedding 配置部分
	Tools     ToolsConfig     `yaml:"tools"`     // 工具凭证配置
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Databases DatabaseConfigs `yaml:"databases"` // 数据库配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil
}
