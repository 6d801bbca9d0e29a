// Package static は固定ルート配下の静的ファイル解決を提供する。
package static

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// indexFile はルートパス（/）に対して配信するファイル名。
const indexFile = "index.html"

var (
	// ErrNotFound は要求されたリソースが存在しないか通常ファイルでないことを表す。
	ErrNotFound = errors.New("static resource not found")
	// ErrForbidden は要求されたパスが配信ルートの外を指していることを表す。
	ErrForbidden = errors.New("static resource outside the document root")
)

// Resolver はリクエストパスを配信ルート配下のファイルへ解決する。
// ルートの外を指すパスは、ファイルシステムへ触れる前に拒否する。
type Resolver struct {
	// root は配信対象ディレクトリの絶対パス。
	root string
}

// NewResolver は指定ディレクトリを配信ルートとするResolverを生成する。
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("配信ルートの絶対パス変換に失敗: %w", err)
	}
	return &Resolver{root: abs}, nil
}

// File は解決済みの静的リソース。
type File struct {
	// Path は解決されたファイルの絶対パス。
	Path string
	// Data はファイルの内容。
	Data []byte
	// ContentType は拡張子から導出したContent-Type。
	ContentType string
}

// Resolve はリクエストパスをルート配下のファイルへ解決する。
// ルート外への脱出は ErrForbidden、ファイルが存在しないか通常ファイル
// でない場合は ErrNotFound を返す。封じ込めの判定は字句的に行い、
// ファイルシステムへのアクセスより必ず先に実行する。
func (r *Resolver) Resolve(requestPath string) (*File, error) {
	if requestPath == "" || requestPath == "/" {
		requestPath = "/" + indexFile
	}

	// filepath.Joinは結合後に.と..を解決する
	target := filepath.Join(r.root, filepath.FromSlash(requestPath))
	if target != r.root && !strings.HasPrefix(target, r.root+string(filepath.Separator)) {
		return nil, ErrForbidden
	}

	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, ErrNotFound
	}

	return &File{
		Path:        target,
		Data:        data,
		ContentType: detectContentType(target, data),
	}, nil
}

// detectContentType は拡張子からContent-Typeを導出する。
// 拡張子で判定できない場合は内容のスニッフィングにフォールバックし、
// それでも不明な場合は汎用のバイナリ型（application/octet-stream）になる。
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}
