package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/walletpass/internal/pass"
)

// ContentType はクライアントへ返すパス成果物のContent-Type。
const ContentType = "application/vnd.apple.pkpass"

// ErrNoCredential は上流API用のトークンが未設定であることを表す。
// ネットワークI/Oを試みる前に返す。
var ErrNoCredential = errors.New("pass issuer credential is not configured")

// Client は上流パス発行APIへのHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// endpoint はパス発行APIのエンドポイントURL。
	endpoint string
	// credential は上流API用のBearerトークン。
	// エラーメッセージやログに出力してはならない。
	credential string
}

// NewClient は新しいパス発行APIクライアントを生成する。
// credentialが空の場合、Issueは即座にErrNoCredentialを返す。
func NewClient(endpoint, credential string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:   endpoint,
		credential: credential,
	}
}

// Pass は上流APIが発行したパス成果物。
type Pass struct {
	// Data はパスのバイナリ本体。
	Data []byte
	// ContentType はクライアントへ返すContent-Type。
	ContentType string
}

// UnreachableError は上流APIへの到達失敗を表す。
// DNS解決失敗・接続拒否・タイムアウトなどのトランスポート層の失敗が対象。
type UnreachableError struct {
	// Err は元となったトランスポートエラー。
	Err error
}

// Error はエラーメッセージを返す。
func (e *UnreachableError) Error() string {
	return "pass issuer is unreachable: " + e.Err.Error()
}

// Unwrap は元となったエラーを返す。
func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// RejectedError は上流APIが非2xxステータスを返したことを表す。
type RejectedError struct {
	// StatusCode は上流のHTTPステータスコード。そのままクライアントへ返す。
	StatusCode int
	// Body は上流のレスポンスボディ。
	Body []byte
	// JSON はBodyをそのままJSONレスポンスとして転送できるかどうか。
	JSON bool
}

// Error はエラーメッセージを返す。
func (e *RejectedError) Error() string {
	return fmt.Sprintf("pass issuer rejected the request: status=%d", e.StatusCode)
}

// Message はクライアントへ返すエラー文を組み立てる。
// JSONボディはそのまま転送するため、非JSONの場合にのみ使用する。
// ボディが空の場合はステータスコードを含む文を合成する。
func (e *RejectedError) Message() string {
	text := strings.TrimSpace(string(e.Body))
	if text == "" {
		return fmt.Sprintf("Pass service returned status %d.", e.StatusCode)
	}
	return text
}

// Issue は正規化済みリクエストを上流APIへ転送し、パス成果物を取得する。
// 失敗はErrNoCredential・*UnreachableError・*RejectedErrorのいずれかで返す。
func (c *Client) Issue(ctx context.Context, req *pass.Request) (*Pass, error) {
	if c.credential == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.credential)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RejectedError{
			StatusCode: resp.StatusCode,
			Body:       data,
			JSON:       isForwardableJSON(resp.Header.Get("Content-Type"), data),
		}
	}

	return &Pass{Data: data, ContentType: ContentType}, nil
}

// isForwardableJSON は上流のエラーボディをそのままJSONとして
// 転送できるかを判定する。Content-TypeがJSONを示し、かつボディが
// 実際に妥当なJSONである場合のみ転送する。
func isForwardableJSON(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return false
	}
	return json.Valid(body)
}
