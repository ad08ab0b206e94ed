package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	AI struct {
		// base URL of the generation provider, e.g. http://127.0.0.1:9800
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
		// poll interval / timeout for long-running video jobs, in seconds
		VideoPollInterval int `yaml:"video_poll_interval"`
		VideoPollTimeout  int `yaml:"video_poll_timeout"`
	} `yaml:"ai"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
	path := os.Getenv("LUMINA_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	// env wins over the file for secrets
	if k := os.Getenv("LUMINA_AI_API_KEY"); k != "" {
		AppConfig.AI.APIKey = k
	}

	if AppConfig.AI.VideoPollInterval <= 0 {
		AppConfig.AI.VideoPollInterval = 10
	}
	if AppConfig.AI.VideoPollTimeout <= 0 {
		AppConfig.AI.VideoPollTimeout = 600
	}
}
