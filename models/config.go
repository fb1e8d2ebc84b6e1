package models

// Config carries system-level configuration for the restomarket server. It is
// parsed from config.yaml and may be overridden by environment variables.
type Config struct {
	Port           string   `yaml:"port" json:"port"`
	DatabaseURL    string   `yaml:"db_url" json:"db_url"`
	DatabasePath   string   `yaml:"db_path" json:"db_path"`
	DatabaseDriver string   `yaml:"db_driver" json:"db_driver"`
	JWTKey         string   `yaml:"jwt_key" json:"jwt_key"`
	RedisAddr      string   `yaml:"redis_addr" json:"redis_addr"`
	Cors           []string `yaml:"cors" json:"cors"`
	IsDebug        bool     `yaml:"debug" json:"debug"`

	LogSamplingTickMs  int `yaml:"log_sampling_tick_ms" json:"log_sampling_tick_ms"`
	LogSamplingAfterMs int `yaml:"log_sampling_after_ms" json:"log_sampling_after_ms"`
}

// Defaults fills zero fields so the server can boot with no config file at
// all, which is how the demo environments run it.
func (c *Config) Defaults() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "restomarket.db"
	}
	if c.JWTKey == "" {
		c.JWTKey = "local-dev-not-a-secret"
	}
	if len(c.Cors) == 0 {
		c.Cors = []string{"http://localhost:3000"}
	}
}
