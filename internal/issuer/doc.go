// Package issuer は上流のパス発行APIへのHTTPクライアントを提供する。
//
// 正規化済みリクエストをサーバー保持のBearerトークン付きで転送し、
// 成功時はバイナリのパス成果物を、失敗時は失敗の種類ごとに異なる
// エラー型を返す。トークンはエラーメッセージ・ログ・レスポンスの
// いずれにも含めてはならない。
package issuer
