package main

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sitescope/backend/internal/config"
	"github.com/sitescope/backend/internal/feed"
	"github.com/sitescope/backend/internal/handlers"
	"github.com/sitescope/backend/internal/middleware"
	"github.com/sitescope/backend/internal/models"
	"github.com/sitescope/backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	storageService := services.NewStorageService(cfg)
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to init S3 service: %v", err)
	}
	authService := services.NewAuthService(db, cfg)
	mediaService := services.NewMediaService(db, cfg, s3Service, storageService)
	projectService := services.NewProjectService(db, s3Service)
	reportService := services.NewReportService(db, cfg)
	shareService := services.NewShareService(cfg)

	// Per-project media feeds: fetch from the database, upload through S3,
	// persist completed uploads back through the media service
	feeds := feed.NewManager(mediaService.ListByProjectKind, s3Service, mediaService)

	// Optional: warm the local asset cache on start
	if cfg.MediaSyncOnStart {
		go func() {
			log.Println("MediaSyncOnStart enabled: warming local media cache...")
			keys, err := s3Service.ListKeys(context.Background(), "projects/", 1000)
			if err != nil {
				log.Printf("Media sync list error: %v", err)
				return
			}
			warmed := 0
			for _, k := range keys {
				abs := filepath.Join(cfg.LocalAssetsPath, filepath.FromSlash(k))
				if _, err := os.Stat(abs); err == nil {
					continue
				}
				buf, derr := s3Service.Download(context.Background(), k)
				if derr != nil {
					continue
				}
				if _, _, _, err := storageService.SaveStream(context.Background(), k, bytes.NewReader(buf.Bytes())); err != nil {
					continue
				}
				warmed++
			}
			log.Printf("MediaSyncOnStart: cache warm complete, %d objects fetched", warmed)
		}()
	}

	// Periodic cleanup of expired refresh tokens
	go func() {
		for {
			if err := authService.CleanupExpiredTokens(); err != nil {
				log.Printf("Refresh token cleanup error: %v", err)
			}
			time.Sleep(1 * time.Hour)
		}
	}()

	// Create admin user if not exists
	if err := authService.CreateDefaultAdmin(); err != nil {
		log.Printf("Failed to create default admin: %v", err)
	}

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService, feeds)
	mediaHandler := handlers.NewMediaHandler(feeds, mediaService, projectService, storageService, shareService)
	analyticsHandler := handlers.NewAnalyticsHandler(reportService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Health check also available under /api/v1/health for compatibility
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Public routes
		public := api.Group("/public")
		{
			public.GET("/media/shared", mediaHandler.ResolveSharedMedia)
		}

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
		}

		// User routes
		user := api.Group("/user")
		user.Use(middleware.Auth(authService))
		{
			user.GET("/profile", authHandler.Profile)

			// Specific routes BEFORE generic :id route to avoid conflicts
			user.GET("/projects/locations", projectHandler.GetProjectLocations)

			user.GET("/projects", projectHandler.GetProjects)
			user.GET("/projects/:id", projectHandler.GetProject)

			// Media feeds
			user.GET("/projects/:id/media", mediaHandler.GetMedia)
			user.POST("/projects/:id/media/refresh", mediaHandler.RefreshMedia)
			user.GET("/projects/:id/media/progress", mediaHandler.GetUploadProgress)

			// Selection
			user.GET("/projects/:id/media/selection", mediaHandler.GetSelection)
			user.POST("/projects/:id/media/selection", mediaHandler.ToggleSelection)
			user.DELETE("/projects/:id/media/selection", mediaHandler.ClearSelection)
			user.POST("/projects/:id/media/selection/delete", mediaHandler.DeleteSelected)

			// Single item operations
			user.GET("/media/:mediaID/url", mediaHandler.GetMediaURL)
			user.GET("/media/:mediaID/file", mediaHandler.ServeMediaFile)
			user.DELETE("/media/:mediaID", mediaHandler.DeleteMedia)
			user.POST("/media/:mediaID/share", mediaHandler.ShareMedia)
			user.GET("/media/:mediaID/share/qr.png", mediaHandler.ShareMediaQR)

			// Analytics
			user.GET("/analytics", analyticsHandler.GetSummary)
			user.GET("/analytics/report.pdf", analyticsHandler.GetReportPDF)

			// Upload routes with rate limiting
			uploadGroup := user.Group("")
			uploadGroup.Use(middleware.UploadRateLimit(redisClient, cfg))
			{
				uploadGroup.POST("/projects/:id/media", mediaHandler.UploadMedia)
			}
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(authService))
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/projects", projectHandler.CreateProject)
			admin.DELETE("/projects/:id", projectHandler.DeleteProject)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // 2 min for large video uploads
		WriteTimeout: 120 * time.Second, // 2 min for large responses
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
