package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del gateway.
type Config struct {
	HTTPPort                string `env:"HTTP_PORT" envDefault:"8080"`
	BackendBaseURL          string `env:"BACKEND_BASE_URL,required"`
	BackendTimeoutSeconds   int    `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"60"`
	MaxUploadBytes          int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	BattleSessionTTLMinutes int    `env:"BATTLE_SESSION_TTL_MINUTES" envDefault:"30"`
	UploadRateWindowSeconds int    `env:"UPLOAD_RATE_WINDOW_SECONDS" envDefault:"60"`
	UploadRateMax           int    `env:"UPLOAD_RATE_MAX" envDefault:"12"`
	RedisAddr               string `env:"REDIS_ADDR"`
	RedisPassword           string `env:"REDIS_PASSWORD"`
	RedisDB                 int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
