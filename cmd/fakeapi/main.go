// Command fakeapi serves an in-memory copy of the manga service for local
// development.
// Usage: go run ./cmd/fakeapi [-addr 127.0.0.1:8190]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entrypoint"
	"github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi/fakeapi"
)

func main() {
	cfg := config.NewConfig()

	defaultAddr := fmt.Sprintf("%s:%d", cfg.FakeAPI.Host, cfg.FakeAPI.Port)
	addr := flag.String("addr", defaultAddr, "address to listen on")
	flag.Parse()

	l := logger.New()
	if err := l.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := l.Log.Named("fakeapi")
	defer log.Sync()

	gin.SetMode(gin.ReleaseMode)
	srv := fakeapi.New(fakeapi.Config{
		JWTSecret: cfg.FakeAPI.JWTSecret,
		TokenTTL:  cfg.FakeAPI.TokenTTL,
		AppToken:  cfg.FakeAPI.AppToken,
		Logger:    log,
	}, fakeapi.SampleCatalog())

	log.Info("point the client at this server with MANGA_API_URL", zap.String("url", "http://"+*addr))
	timeout := entrypoint.ShutdownTimeout(cfg)
	if err := entrypoint.Serve(srv.Handler(), *addr, timeout, log, nil); err != nil {
		log.Fatal("fake API server failed", zap.Error(err))
	}
}
