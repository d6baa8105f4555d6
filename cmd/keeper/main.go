package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/api"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/conf"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/data"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/classifier"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/lark"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/llm"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/render"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/server"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize clients
	larkClient := lark.NewClient(cfg.Lark.AppID, cfg.Lark.AppSecret)

	// Classifier sidecar: a failed health check disables detection for the
	// whole run instead of aborting startup
	classifierCli := classifier.NewClient(cfg.Classifier.BaseURL)
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := classifierCli.Healthy(healthCtx); err != nil {
		fmt.Printf("[Keeper] Classifier unavailable, promise detection disabled: %v\n", err)
		classifierCli = nil
	}
	healthCancel()

	var llmCli *llm.Client
	if cfg.LLM.APIKey != "" {
		llmCli = llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
		fmt.Println("[Keeper] Confirmation provider enabled")
	} else {
		fmt.Println("[Keeper] No LLM_API_KEY set, confirmation stage disabled")
	}

	renderer := render.New()

	// Initialize repository layer
	repos, err := data.NewRepositories(larkClient, classifierCli, llmCli, renderer, cfg.Store.DataDir)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}

	fmt.Printf("[Keeper] Data directory: %s\n", cfg.Store.DataDir)

	// Initialize usecase layer
	gate := usecase.NewGate(repos.Classifier, cfg.Classifier.Threshold)
	confirmer := usecase.NewConfirmer(repos.Completion, cfg.Prompts.Confirm.SystemPrompt)
	resolver := usecase.NewTimeResolver()
	query := usecase.NewQuery(repos.Promise)

	// Initialize service layer
	detector := service.NewDetectorService(gate, confirmer, resolver, repos.Promise, repos.Message, repos.DetectionLog)
	commands := service.NewCommandService(query, repos.Message, repos.Render, repos.DetectionLog)
	scheduler := service.NewReminderScheduler(repos.Promise, repos.Message, cfg.Reminder.SweepInterval)

	// HTTP API server for the MCP sidecar
	apiServer := api.NewServer(query, cfg.API.Port)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("[Keeper] API server error: %v\n", err)
		}
	}()

	scheduler.Start(context.Background())

	// Initialize server
	srv := server.NewLarkServer(larkClient, repos.Message, detector, commands)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
		scheduler.Stop()
		apiServer.Stop()
		repos.DetectionLog.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting Promise Keeper...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
