package pass

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// MaxBodyBytes はリクエストボディの上限サイズ（バイト）。
// 上限はボディの読み取り中に強制され、超過した時点で読み取りを打ち切る。
const MaxBodyBytes = 1_000_000

// ErrInvalidJSON はリクエストボディがJSONとして解釈できないことを表す。
var ErrInvalidJSON = errors.New("request body is not valid JSON")

// Request は正規化済みのパス発行リクエスト。
// 任意項目は値が存在する場合のみJSONに含まれ、空文字列としては
// 送信されない。ExpirationDaysは有限かつ正の数の場合のみ含まれる。
type Request struct {
	// BarcodeValue はバーコードにエンコードする値。必須。
	BarcodeValue string `json:"barcodeValue"`
	// BarcodeFormat はバーコードの形式（qr、code128など）。必須。
	BarcodeFormat string `json:"barcodeFormat"`
	// Title はパスの表示タイトル。必須。
	Title string `json:"title"`
	// Label はパス表面の補助ラベル。任意。
	Label string `json:"label,omitempty"`
	// Value は補助ラベルに対応する表示値。任意。
	Value string `json:"value,omitempty"`
	// ColorPreset はパスの配色プリセット名。任意。
	ColorPreset string `json:"colorPreset,omitempty"`
	// ExpirationDays はパスの有効日数。任意。
	ExpirationDays float64 `json:"expirationDays,omitempty"`
}

// ValidationError は必須項目の欠落を表す。
// Missingには欠落した全項目名が入力順で入る。
type ValidationError struct {
	// Missing は欠落した必須項目名の一覧。
	Missing []string
}

// Error はクライアントへそのまま返せるエラーメッセージを返す。
func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Missing, ", ") + "."
}

// TooLargeError はリクエストボディがサイズ上限を超えたことを表す。
type TooLargeError struct {
	// Limit は上限サイズ（バイト）。
	Limit int64
}

// Error はクライアントへそのまま返せるエラーメッセージを返す。
func (e *TooLargeError) Error() string {
	return fmt.Sprintf("Request body exceeds the %d byte limit.", e.Limit)
}

// requiredFields は必須項目名。エラーメッセージの項目順を固定する。
var requiredFields = []string{"barcodeValue", "barcodeFormat", "title"}

// Decode はリクエストボディを読み取り、未検証のJSONオブジェクトを返す。
// サイズ上限はリーダー側（http.MaxBytesReader）で強制される前提で、
// 超過は *TooLargeError へ変換する。空ボディは空オブジェクトとして扱い、
// その後の必須項目検証に委ねる。
func Decode(r io.Reader) (map[string]any, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &TooLargeError{Limit: maxErr.Limit}
		}
		return nil, fmt.Errorf("リクエストボディの読み取りに失敗: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}
	return raw, nil
}

// Normalize は未検証のJSONオブジェクトを正規化済みリクエストへ変換する。
// 必須項目が1つでも欠けている場合は、欠落した全項目名を含む
// *ValidationError を返す。
func Normalize(raw map[string]any) (*Request, error) {
	missing := make([]string, 0, len(requiredFields))
	for _, name := range requiredFields {
		v, ok := raw[name]
		if !ok || coerceString(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	req := &Request{
		BarcodeValue:  coerceString(raw["barcodeValue"]),
		BarcodeFormat: coerceString(raw["barcodeFormat"]),
		Title:         coerceString(raw["title"]),
		Label:         coerceString(raw["label"]),
		Value:         coerceString(raw["value"]),
		ColorPreset:   coerceString(raw["colorPreset"]),
	}

	// 範囲外の有効日数はエラーにせず黙って捨てる
	if days, ok := coerceNumber(raw["expirationDays"]); ok && isValidExpiration(days) {
		req.ExpirationDays = days
	}

	return req, nil
}

// coerceString はJSON値を前後の空白を除いた文字列へ変換する。
// null・オブジェクト・配列は空文字列（＝未指定）として扱う。
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// coerceNumber はJSON値を数値へ変換する。
// JSON数値と数値文字列のみ変換でき、それ以外はfalseを返す。
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isValidExpiration は有効日数として採用できる値かを判定する。
// 有限かつ0より大きい値のみ採用する。
func isValidExpiration(days float64) bool {
	return !math.IsNaN(days) && !math.IsInf(days, 0) && days > 0
}
