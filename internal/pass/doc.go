// Package pass はブラウザから受け取ったパス定義リクエストの
// 検証と正規化を提供する。
//
// 入力は信頼できない任意のJSONオブジェクトとして扱い、項目ごとに
// 明示的な型変換と境界チェックを行う。必須項目の欠落は最初の1件で
// 打ち切らず、欠落した全項目名を1つのエラーにまとめる。
package pass
