package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/walletpass/internal/config"
	"github.com/nao1215/walletpass/internal/issuer"
	"github.com/nao1215/walletpass/internal/pass"
	"github.com/nao1215/walletpass/internal/static"
	"github.com/nao1215/walletpass/pkg/middleware"
)

// downloadFilename はクライアントがダウンロードするパスの固定ファイル名。
const downloadFilename = "pass.pkpass"

// Server はwalletpassエッジサービスのHTTPサーバー。
// リクエスト間で共有する可変状態を持たず、設定は起動後読み取り専用。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に読み込んだプロセス全体設定。
	cfg *config.Config
	// issuer は上流パス発行APIへのクライアント。
	issuer *issuer.Client
	// static は静的ファイルのリゾルバ。
	static *static.Resolver
}

// NewServer は新しいwalletpassサーバーを生成する。
func NewServer(cfg *config.Config) (*Server, error) {
	resolver, err := static.NewResolver(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("配信ルートの初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	if cfg.FrontendURL != "" {
		router.Use(middleware.CORS([]string{cfg.FrontendURL}))
	}

	s := &Server{
		router: router,
		cfg:    cfg,
		issuer: issuer.NewClient(cfg.UpstreamURL, cfg.Credential),
		static: resolver,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はHTTPハンドラーを返す。http.Serverへ渡して使用する。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// パス発行API
	s.router.POST("/api/pkpass", s.handleCreatePass())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "walletpass"})
	})

	// 上記以外はすべて静的ファイル配信へ。GET/HEAD以外のメソッドは405。
	s.router.NoRoute(s.handleStatic())
}

// handleCreatePass はパス発行リクエストを検証・正規化し、上流APIへ
// 転送するハンドラを返す。成功時はバイナリのパスをそのまま返す。
func (s *Server) handleCreatePass() gin.HandlerFunc {
	return func(c *gin.Context) {
		// サイズ上限は読み取り中に強制され、超過時点で打ち切られる
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, pass.MaxBodyBytes)

		raw, err := pass.Decode(c.Request.Body)
		if err != nil {
			s.renderRequestError(c, err)
			return
		}

		req, err := pass.Normalize(raw)
		if err != nil {
			s.renderRequestError(c, err)
			return
		}

		issued, err := s.issuer.Issue(c.Request.Context(), req)
		if err != nil {
			s.renderIssueError(c, err)
			return
		}

		c.Header("Content-Disposition", "attachment; filename="+downloadFilename)
		c.Header("Content-Length", strconv.Itoa(len(issued.Data)))
		c.Data(http.StatusOK, issued.ContentType, issued.Data)
	}
}

// handleStatic は静的ファイル配信ハンドラを返す。
// GET/HEAD以外のメソッドは405で拒否する。
func (s *Server) handleStatic() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed."})
			return
		}

		file, err := s.static.Resolve(c.Request.URL.Path)
		switch {
		case errors.Is(err, static.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden."})
		case errors.Is(err, static.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		case err != nil:
			log.Printf("静的ファイルの解決に失敗: path=%s, error=%v", c.Request.URL.Path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		default:
			c.Data(http.StatusOK, file.ContentType, file.Data)
		}
	}
}

// renderRequestError はリクエスト起因のエラーをHTTPレスポンスへ変換する。
// すべて400で返すが、エラー種別ごとにメッセージを使い分ける。
func (s *Server) renderRequestError(c *gin.Context, err error) {
	var tooLarge *pass.TooLargeError
	var invalid *pass.ValidationError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": tooLarge.Error()})
	case errors.Is(err, pass.ErrInvalidJSON):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is not valid JSON."})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body."})
	}
}

// renderIssueError は上流呼び出しの失敗をHTTPレスポンスへ変換する。
// エラー種別を別の種別へ黙って丸めない。復旧手順が明確な種別にのみ
// hintを付与する。
func (s *Server) renderIssueError(c *gin.Context, err error) {
	var unreachable *issuer.UnreachableError
	var rejected *issuer.RejectedError
	switch {
	case errors.Is(err, issuer.ErrNoCredential):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Pass service credential is not configured.",
			"hint":  "Set the PASS_API_TOKEN environment variable and restart the server.",
		})
	case errors.As(err, &unreachable):
		log.Printf("上流APIへの接続に失敗: request_id=%s, error=%v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Could not reach the pass service.",
			"hint":  "Check the network connection and the PASS_API_URL setting.",
		})
	case errors.As(err, &rejected):
		if rejected.JSON {
			// 上流のエラーはステータスもボディもそのまま転送する
			c.Data(rejected.StatusCode, "application/json", rejected.Body)
			return
		}
		c.JSON(rejected.StatusCode, gin.H{"error": rejected.Message()})
	default:
		log.Printf("パス発行に失敗: request_id=%s, error=%v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}
