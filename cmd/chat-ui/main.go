// Command chat-ui serves a minimal browser chat front end for the agent
// backend.
package main

import (
	"flag"
	"log"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/pkg/logger"
	"github.com/stockchat/agent-backend/internal/webui"
)

func main() {
	addr := flag.String("addr", ":8501", "address to serve the chat page on")
	backend := flag.String("backend", "http://localhost:8000", "agent backend base URL")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	zlog, err := logger.New(*logLevel)
	if err != nil {
		log.Fatal("setup logger:", err)
	}

	target, err := url.Parse(*backend)
	if err != nil {
		zlog.Fatal("invalid backend URL", zap.Error(err))
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: webui.NewRouter(target),
		// Write timeout must outlast the slowest agent loop behind the
		// proxy, which chains several LLM calls.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
	}

	zlog.Info("Starting chat UI",
		zap.String("addr", *addr),
		zap.String("backend", *backend),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("chat UI server error", zap.Error(err))
	}
}
