// walletpassサービスのエントリポイント。
// ブラウザクライアントの静的配信と、パス発行リクエストの検証・
// 上流APIへの中継を担当する。上流API用トークンはこのプロセスのみが
// 保持し、ブラウザへは渡さない。
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nao1215/walletpass/internal/config"
	"github.com/nao1215/walletpass/internal/server"
)

func main() {
	// .envは開発用。存在しなくてもエラーにしない。
	_ = godotenv.Load()

	cfg := config.Load()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Handler(),
	}

	// signal.Notifyにはバッファ付きチャネルが必要
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		httpServer.Close()
	}()

	log.Printf("walletpassサービスを起動します: %s", cfg.Addr())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("walletpassサービスの起動に失敗: %v", err)
	}
	log.Print("walletpassサービスを停止しました")
}
