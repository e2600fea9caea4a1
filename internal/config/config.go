// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	// JWTSecret はセッショントークンの署名鍵。プロセス全体で共有し、
	// 起動後のローテーションは行わない。
	JWTSecret string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Posts
	PostListDefaultLimit int
	PostListMaxLimit     int
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数（DATABASE_URL, JWT_SECRET）が未設定の場合はエラーを返す。
// JWT_SECRETの欠落は初回検証時ではなく起動時に失敗させる。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.PostListDefaultLimit = getEnvInt("POST_LIST_DEFAULT_LIMIT", 10)
	cfg.PostListMaxLimit = getEnvInt("POST_LIST_MAX_LIMIT", 100)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
