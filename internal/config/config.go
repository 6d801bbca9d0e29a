// Package config はwalletpassサービスのプロセス全体設定を提供する。
//
// 設定は起動時に環境変数から一度だけ読み込み、以降は変更しない。
// 各コンポーネントへは明示的に渡すため、テスト時には偽の設定を
// 注入できる。
package config

import (
	"net"
	"os"
)

// defaultUpstreamURL はパス発行APIの本番エンドポイント。
// PASS_API_URL 環境変数で上書きできる。
const defaultUpstreamURL = "https://walletpass-api.nao1215.dev/api/pkpass"

// Config はwalletpassサービスのプロセス全体設定。
// 起動時に一度だけ構築され、以降は読み取り専用として扱う。
type Config struct {
	// Host はHTTPサーバーのバインド先ホスト。空の場合は全インターフェース。
	Host string
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// UpstreamURL はパス発行APIのエンドポイントURL。
	UpstreamURL string
	// Credential はパス発行APIに対するBearerトークン。
	// 未設定の場合、パス発行リクエストは設定エラー（500）として扱う。
	// ブラウザクライアントへ渡してはならない。
	Credential string
	// StaticDir はブラウザクライアントを配信するルートディレクトリ。
	StaticDir string
	// FrontendURL は開発用フロントエンドのオリジン。
	// 設定した場合のみ、そのオリジンからのCORSを許可する。
	FrontendURL string
}

// Load は環境変数からConfigを構築する。
// 未設定の項目には開発用のデフォルト値を適用する。
func Load() *Config {
	return &Config{
		Host:        os.Getenv("HOST"),
		Port:        getEnvOr("PORT", "8080"),
		UpstreamURL: getEnvOr("PASS_API_URL", defaultUpstreamURL),
		Credential:  os.Getenv("PASS_API_TOKEN"),
		StaticDir:   getEnvOr("STATIC_DIR", "web"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
	}
}

// Addr はHTTPサーバーのバインド先アドレスを返す。
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
