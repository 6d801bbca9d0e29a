// Package server はwalletpassエッジサービスのHTTPサーバーを提供する。
//
// ブラウザクライアントの静的配信と、パス発行リクエストの検証・
// 上流APIへの中継を担当する。外部からアクセス可能な唯一の層であり、
// 上流API用トークンを外部へ漏らさない境界線として機能する。
// すべてのエラーはここで構造化JSONレスポンスへ変換され、リクエスト
// の外へ伝播しない。
package server
