package main

import (
	"flag"
	"log"

	"github.com/stockchat/agent-backend/internal/builder"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	app, err := builder.Build(*configPath)
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}

	if err := app.Run(); err != nil {
		log.Fatal("Application error:", err)
	}
}
