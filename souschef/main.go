package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"souschef/config"
	"souschef/controllers"
	"souschef/routes"
	"souschef/services/llm"
	"souschef/sources/psql"
	"souschef/sources/psql/dao"
	"souschef/sources/storage"
	"souschef/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	recipeDAO := dao.NewRecipeDAO(db.DB)
	userDAO := dao.NewUserDAO(db.DB)

	if cfg.SeedFile != "" {
		n, err := psql.SeedFromFile(ctx, recipeDAO, cfg.SeedFile)
		if err != nil {
			logging.ErrorLogger.Error("recipe seed error", zap.Error(err))
			os.Exit(1)
		}
		logging.AppLogger.Info("seeded recipes", zap.Int("inserted", n))
	}

	// Photo storage is optional; without it the photo endpoints just fail.
	var photos *storage.MinIOClient
	if cfg.MinIOEndpoint != "" {
		photos, err = storage.NewMinIOClient(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
	}

	provider := newProvider(cfg)

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	recipeCtrl := controllers.NewRecipeController(recipeDAO, photos)
	cookingCtrl := controllers.NewCookingController(recipeDAO, provider, cfg)
	cookingCtrl.Start()
	defer cookingCtrl.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/health", routes.HealthRoutes(controllers.NewHealthController()))
	r.With(middleware.Timeout(60 * time.Second)).
		Mount("/recipes", routes.RecipeRoutes(recipeCtrl, cfg))
	// No timeout middleware on /cooking: the stream and websocket routes
	// stay open for the length of a turn.
	r.Mount("/cooking", routes.CookingRoutes(cookingCtrl, cfg))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("souschef listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}

func newProvider(cfg config.Config) llm.Provider {
	switch cfg.LLMProvider {
	case "ollama":
		return llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.LLMTimeout)
	default:
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.LLMTimeout)
	}
}
