package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode             string        `mapstructure:"mode"`
	Port             int           `mapstructure:"port"`
	StaticPath       string        `mapstructure:"static_path"`
	Secret           string        `mapstructure:"secret"`
	SignalingURL     string        `mapstructure:"signaling_url"`
	ICEServers       []string      `mapstructure:"ice_servers"`
	ReconnectMin     time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax     time.Duration `mapstructure:"reconnect_max"`
	AudioCaptureAddr string        `mapstructure:"audio_capture_addr"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "homecam-dev-secret")
	v.SetDefault("signaling_url", "wss://localhost:8443/ws/signal")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"})
	v.SetDefault("reconnect_min", "1s")
	v.SetDefault("reconnect_max", "30s")
	v.SetDefault("audio_capture_addr", "127.0.0.1:4004")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Signaling: %s\n", cfg.Mode, cfg.Port, cfg.SignalingURL)
	return &cfg, nil
}
