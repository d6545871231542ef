package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

// Cfg 全局配置，进程启动时加载一次
var Cfg *Config

type Config struct {
	Server ServerConfig `yaml:"server"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	OSS    OSSConfig    `yaml:"oss"`
	Milvus MilvusConfig `yaml:"milvus"`
	MQ     MQConfig     `yaml:"mq"`
	Model  ModelConfig  `yaml:"model"`
	JWT    JWTConfig    `yaml:"jwt"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type OSSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	BucketName      string `yaml:"bucket_name"`
}

type MilvusConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type MQConfig struct {
	NameServer []string `yaml:"name_server"`
}

type ModelConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	// 向量维度，必须与Milvus集合的schema一致
	EmbeddingDim int `yaml:"embedding_dim"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
}

// MustLoad 读取配置文件并设置全局配置，失败时直接退出
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	Cfg = cfg
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %v", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %v", path, err)
	}

	if cfg.Model.EmbeddingDim == 0 {
		cfg.Model.EmbeddingDim = 1536
	}

	return &cfg, nil
}
