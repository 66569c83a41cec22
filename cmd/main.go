package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kitchenrush/internal/api"
	"kitchenrush/internal/config"
	"kitchenrush/internal/database"
	"kitchenrush/internal/evaluation"
	"kitchenrush/internal/game"
	"kitchenrush/internal/models"
	"kitchenrush/internal/monitoring"
	"kitchenrush/internal/orders"
	"kitchenrush/internal/questions"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	// Initialize database
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()
	store := database.NewSessionStore(database.GetDB())

	// Game content
	layout := models.DefaultLayout()
	recipes, err := orders.DefaultRecipes()
	if err != nil {
		log.Fatalf("Failed to load recipes: %v", err)
	}
	source, err := initializeQuestions(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize questions: %v", err)
	}

	// Initialize metrics
	collector := monitoring.NewCollector()
	monitor := monitoring.NewMonitor()

	manager := game.NewManager(cfg.Game, game.Deps{
		Layout:    layout,
		Recipes:   recipes,
		Questions: source,
		Evaluator: evaluation.NewEvaluator(),
	},
		game.WithStore(store),
		game.WithCollector(collector),
		game.WithMonitor(monitor),
	)

	// Initialize API server
	kitchen := api.NewKitchenAPI(api.Options{
		Sessions:  manager,
		Layout:    layout,
		Questions: source,
		History:   store,
		Monitor:   monitor,
		Auth:      cfg.Auth,
	})

	metricsServer := startMetricsServer(cfg.Server, collector)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: kitchen.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		if err := manager.Shutdown(shutdownCtx); err != nil {
			log.Printf("Session shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// initializeQuestions returns the built-in bank, wrapped by an LLM source
// when one is configured
func initializeQuestions(cfg *config.Config) (questions.Source, error) {
	bank, err := questions.DefaultBank(cfg.Game.Seed)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d questions", bank.Len())

	if !cfg.Questions.LLMEnabled {
		return bank, nil
	}
	gen, err := questions.NewGenerator(cfg.Questions)
	if err != nil {
		log.Printf("LLM questions disabled: %v", err)
		return bank, nil
	}
	log.Printf("Generating questions with %s (%s)", cfg.Questions.Provider, cfg.Questions.Model)
	return questions.NewLLMSource(gen, bank, cfg.Questions.Timeout), nil
}

func startMetricsServer(cfg config.ServerConfig, collector *monitoring.Collector) *http.Server {
	metricsRouter := gin.Default()
	metricsRouter.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		log.Printf("Starting metrics server on port %d", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return metricsServer
}
