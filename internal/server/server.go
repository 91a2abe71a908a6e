// Package server
//
// @title Glowcart API
// @version 1.0
// @description Skincare storefront API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/glowcart-dev/glowcart/internal/auth"
	"github.com/glowcart-dev/glowcart/internal/catalog"
	"github.com/glowcart-dev/glowcart/internal/config"
	"github.com/glowcart-dev/glowcart/internal/gate"
	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/orders"
	"github.com/glowcart-dev/glowcart/internal/otp"
)

// Enqueuer is the slice of the Asynq client the handlers need. Tests
// substitute a capture implementation.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server represents the HTTP server
type Server struct {
	router         *gin.Engine
	db             *gorm.DB
	config         *config.Config
	logger         zerolog.Logger
	validator      *validator.Validate
	asynqClient    *asynq.Client
	enqueuer       Enqueuer
	catalogService *catalog.Service
	ordersService  *orders.Service
	otpService     *otp.Service
	version        string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication
	// The secret is auto-generated on first startup and persisted in the
	// Config singleton row.
	if err := ensureConfig(db, zlog); err != nil {
		return nil, err
	}

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) < 8 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, char := range value {
			switch {
			case char >= '0' && char <= '9':
				hasDigit = true
			case (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z'):
				hasLetter = true
			}
		}
		return hasLetter && hasDigit
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Initialize services
	catalogService := catalog.NewService(db, zlog)
	ordersService := orders.NewService(db, zlog)
	otpService := otp.NewService(db, zlog)

	// Create server
	server := &Server{
		db:             db,
		config:         cfg,
		logger:         zlog,
		validator:      validate,
		asynqClient:    asynqClient,
		enqueuer:       asynqClient,
		catalogService: catalogService,
		ordersService:  ordersService,
		otpService:     otpService,
		version:        version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// ensureConfig creates the Config singleton with a generated JWT secret on
// first startup and initializes JWT signing either way
func ensureConfig(db *gorm.DB, zlog zerolog.Logger) error {
	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		auth.InitializeJWT(cfg.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)

	cfg = models.Config{JWTSecret: secret}
	if err := db.Create(&cfg).Error; err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	auth.InitializeJWT(secret)
	zlog.Info().Msg("Generated JWT secret on first startup")
	return nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8         // Reduced for SQLite efficiency
		maxIdleConns      = 4         // Reduced proportionally
		connMaxLifetime   = 300       // 5 minutes
		busyTimeout       = 5000      // 5 seconds
		cacheSize         = 10000     // 10MB
		mmapSize          = 134217728 // 128MB
		walAutocheckpoint = 1000      // WAL auto-checkpoint pages
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly (connection string pragmas may not work with all drivers)
	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",                                      // Enable WAL mode for better concurrency
		"PRAGMA synchronous=NORMAL",                                    // Faster than FULL, still safe with WAL
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint), // Auto-checkpoint WAL file
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
		fmt.Sprintf("PRAGMA mmap_size=%d", mmapSize),
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth + catalog endpoints (no auth required)
	s.router.POST("/api/auth/login", s.login)
	s.router.POST("/api/users/register", s.register)
	s.router.POST("/api/email/send-otp", s.sendOTP)
	s.router.POST("/api/email/verify-otp", s.verifyOTP)
	s.router.POST("/api/email/send-otp-forget-password", s.sendPasswordResetOTP)
	s.router.GET("/api/items/all", s.listItems)
	s.router.GET("/api/items/paginate", s.paginateItems)
	s.router.GET("/api/items/:id", s.getItem)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)

		// Role lookup
		api.GET("/roles/:id", s.getRole)

		// Cart / orders
		api.POST("/cart/create", s.createOrder)
		api.GET("/cart/mine", s.listMyOrders)

		// Staff-only order management
		staffRoutes := api.Group("/cart")
		staffRoutes.Use(StaffOnlyMiddleware(s.logger))
		{
			staffRoutes.GET("/all", s.listAllOrders)
			staffRoutes.PATCH("/:id", s.updateOrderStatus)
		}
	}

	// Gated web routes. These serve the page shells; the gates decide
	// whether a visitor may stay on them.
	source := s.sessionSource()
	s.router.GET("/", s.homePage)
	s.router.GET("/account", gate.RequireLogin(source, s.logger).Middleware(), s.accountPage)
	s.router.GET("/orders", gate.RequireLogin(source, s.logger).Middleware(), s.accountPage)
	s.router.GET("/staff", gate.ByRole(source, true, false, s.logger).Middleware(), s.staffPage)
	s.router.GET("/staff/orders", gate.ByRole(source, true, false, s.logger).Middleware(), s.staffPage)
	s.router.GET("/quiz", gate.ByRole(source, false, true, s.logger).Middleware(), s.accountPage)
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "glowcart-api",
	})
}

func (s *Server) homePage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "home", "login": c.Query(gate.LoginPromptParam) == "1"})
}

func (s *Server) accountPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "account"})
}

func (s *Server) staffPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "staff"})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// SeedCatalog loads items from a YAML file into an empty catalog. A missing
// file or an already-populated table is not an error.
func (s *Server) SeedCatalog(path string) error {
	return s.catalogService.SeedFromYAML(path)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":8080"

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second, // 5 minutes
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
