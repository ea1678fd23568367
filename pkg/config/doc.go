// Package config loads env-tagged configuration structs.
//
// Structs declare their variables with caarlos0/env tags:
//
//	type Config struct {
//		BaseURL string        `env:"PORTAL_API_URL" envDefault:"http://localhost:8000/api"`
//		Timeout time.Duration `env:"PORTAL_API_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env")); err != nil { ... }
//
// Files given to WithEnvFiles are read with godotenv before parsing and
// never override variables already set in the process environment. A
// missing default ".env" is not an error; a missing explicit file is.
package config
