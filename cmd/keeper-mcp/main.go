package main

import (
	"context"
	"log"
	"os"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/mcpserver"
)

func main() {
	apiURL := os.Getenv("KEEPER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:9877"
	}

	srv := mcpserver.NewServer(apiURL)
	if err := srv.Run(context.Background()); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
