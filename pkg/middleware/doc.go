// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// リクエストID付与、パニックリカバリ、開発用フロントエンド向けの
// CORS設定を含む。エラーは常にリクエスト単位で処理し、サーバー
// プロセス全体を落とさない。
package middleware
