package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codecollab-io/codecollab/agent"
	"github.com/codecollab-io/codecollab/api"
	"github.com/codecollab-io/codecollab/config"
	"github.com/codecollab-io/codecollab/db"
	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/log"
	"github.com/codecollab-io/codecollab/persist"
	"github.com/codecollab-io/codecollab/realtime"
	"github.com/codecollab-io/codecollab/sandbox"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present (silently ignored in production)
	_ = godotenv.Load()

	cfg := config.Get()

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Initialize database
	_ = db.GetDB()

	// Wire the realtime core: rooms, debounced persistence, sandbox,
	// file tree synchronization and the message router.
	rooms := realtime.NewManager()
	saver := persist.NewWriter(cfg.SaveDebounce, persist.StoreFunc(db.UpdateFileTree))
	sync := realtime.NewSynchronizer(saver, newMounter(cfg), loadStoredTree)

	var completer realtime.Completer
	if a := agent.Get(); a != nil {
		completer = a
	}
	router := realtime.NewRouter(rooms, sync, completer)

	handlers := &api.Handlers{
		Rooms:  rooms,
		Router: router,
		Sync:   sync,
		Agent:  completer,
	}

	// Set Gin to release mode to disable its default debug logging;
	// the zerolog-based request logger is used instead
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	if cfg.IsDevelopment() || cfg.FrontendURL != "" {
		r.Use(corsMiddleware(cfg))
	}

	r.SetTrustedProxies(nil)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(r, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:     addr,
		Handler:  r,
		ErrorLog: log.StdLogger(log.Logger().GetLevel()),
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("env", cfg.Env).
			Msg("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Close rooms first so no new mutations arrive, then flush pending saves
	rooms.Shutdown()
	saver.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	log.Info().Msg("server stopped")
}

// newMounter picks the sandbox implementation from configuration
func newMounter(cfg *config.Config) sandbox.Mounter {
	switch {
	case cfg.SandboxURL != "":
		log.Info().Str("url", cfg.SandboxURL).Msg("sandbox: remote runner")
		return sandbox.NewHTTPMounter(cfg.SandboxURL)
	case cfg.SandboxDir != "":
		log.Info().Str("dir", cfg.SandboxDir).Msg("sandbox: local directory")
		return sandbox.NewDirMounter(cfg.SandboxDir)
	default:
		log.Warn().Msg("sandbox not configured, mounts disabled")
		return sandbox.NopMounter{}
	}
}

// loadStoredTree fetches a project's persisted file tree for the synchronizer
func loadStoredTree(projectID string) (*filetree.Tree, error) {
	project, err := db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	return filetree.Parse([]byte(project.FileTree))
}

// corsMiddleware allows the configured frontend origins
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, origin := range strings.Split(cfg.FrontendURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] || (cfg.IsDevelopment() && strings.HasPrefix(origin, "http://localhost")) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
