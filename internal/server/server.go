// Package server contains HTTP and WebSocket handlers for the portal's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gcxportal/internal/cache"
	"gcxportal/internal/config"
	"gcxportal/internal/database"
	"gcxportal/internal/middleware"
	"gcxportal/internal/models"
	"gcxportal/internal/notifications"
	"gcxportal/internal/repository"
	"gcxportal/internal/service"
	"gcxportal/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	jwtIssuer   = "gcx-portal-api"
	jwtAudience = "gcx-portal-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store      storage.Store
	dispatcher *notifications.Dispatcher
	notifier   *notifications.Notifier
	hub        *notifications.Hub

	userRepo     repository.UserRepository
	appRepo      repository.ApplicationRepository
	docRepo      repository.DocumentRepository
	refRepo      repository.ReferenceRepository
	contractRepo repository.ContractRepository
	deliveryRepo repository.DeliveryRepository
	invoiceRepo  repository.InvoiceRepository
	auditRepo    repository.AuditRepository

	appService      *service.ApplicationService
	docService      *service.DocumentService
	contractService *service.ContractService
	deliveryService *service.DeliveryService
	invoiceService  *service.InvoiceService
	userService     *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher initialization failed: %w", err)
	}

	return assembleServer(cfg, db, redisClient, store, dispatcher), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis/storage.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store, dispatcher *notifications.Dispatcher) *Server {
	return assembleServer(cfg, db, redisClient, store, dispatcher)
}

func assembleServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store, dispatcher *notifications.Dispatcher) *Server {
	prom := middleware.InitMetrics("gcx-portal-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		store:          store,
		dispatcher:     dispatcher,
		userRepo:       repository.NewUserRepository(db),
		appRepo:        repository.NewApplicationRepository(db),
		docRepo:        repository.NewDocumentRepository(db),
		refRepo:        repository.NewReferenceRepository(db),
		contractRepo:   repository.NewContractRepository(db),
		deliveryRepo:   repository.NewDeliveryRepository(db),
		invoiceRepo:    repository.NewInvoiceRepository(db),
		auditRepo:      repository.NewAuditRepository(db),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	server.docService = service.NewDocumentService(
		server.docRepo, server.appRepo, server.auditRepo, store,
		dispatcher, server.notifier, cfg.DocumentCompletionDays, cfg.PublicBaseURL,
	)
	server.appService = service.NewApplicationService(
		server.appRepo, server.userRepo, server.refRepo, server.auditRepo,
		server.docService, dispatcher, server.notifier,
	)
	server.contractService = service.NewContractService(server.contractRepo, server.appRepo, server.refRepo, dispatcher)
	server.deliveryService = service.NewDeliveryService(server.deliveryRepo, server.contractRepo, server.appRepo, dispatcher)
	server.invoiceService = service.NewInvoiceService(server.invoiceRepo, server.contractRepo, server.appRepo, dispatcher)
	server.userService = service.NewUserService(server.userRepo)

	return server
}

// buildDispatcher wires the SES/SNS senders according to config. When both
// channels are disabled, no AWS clients are constructed at all.
func buildDispatcher(cfg *config.Config) (*notifications.Dispatcher, error) {
	var email notifications.EmailSender
	var sms notifications.SMSSender

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.EmailEnabled {
		sender, err := notifications.NewSESSender(ctx, cfg.AWSRegion, cfg.FromEmail)
		if err != nil {
			return nil, fmt.Errorf("SES client: %w", err)
		}
		email = sender
	}
	if cfg.SMSEnabled {
		sender, err := notifications.NewSNSSender(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("SNS client: %w", err)
		}
		sms = sender
	}

	return notifications.NewDispatcher(email, sms, cfg.EmailEnabled, cfg.SMSEnabled), nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// OpenTelemetry spans (after requestid so the span can carry it)
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "GCX Supplier Portal Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/change-password", s.AuthRequired(), s.ChangePassword)

	// Public reference data
	reference := api.Group("/reference")
	reference.Get("/regions", s.GetRegions)
	reference.Get("/commodities", s.GetCommodities)
	reference.Get("/schools", s.GetSchools)

	// Public application routes
	applications := api.Group("/applications")
	applications.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "submit_application"), s.SubmitApplication)
	applications.Get("/track/:code", middleware.RateLimit(
		s.redis, 30, time.Minute, "track"), s.TrackApplication)
	applications.Get("/complete/:token", s.GetCompletionView)
	applications.Post("/complete/:token/documents", middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "token_upload"), s.UploadByCompletionToken)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.StaffRequired(), s.IssueWSTicket)

	// Supplier routes
	supplier := api.Group("/supplier", s.AuthRequired())
	supplier.Get("/application", s.GetMyApplication)
	supplier.Get("/contracts", s.GetMyContracts)
	supplier.Get("/contracts/:id/deliveries", s.GetMyContractDeliveries)
	supplier.Get("/contracts/:id/invoices", s.GetMyContractInvoices)

	// Staff routes
	staff := api.Group("/staff", s.AuthRequired(), s.StaffRequired())

	staffApps := staff.Group("/applications")
	staffApps.Get("/", s.ListApplications)
	staffApps.Get("/:id/audit-logs", s.GetApplicationAuditLogs)
	staffApps.Get("/:id/documents", s.GetApplicationDocuments)
	staffApps.Post("/:id/approve", s.ApproveApplication)
	staffApps.Post("/:id/reject", s.RejectApplication)
	staffApps.Post("/:id/documents", s.UploadApplicationDocument)
	staffApps.Post("/:id/document-requests", s.CreateDocumentRequest)
	staffApps.Get("/:id", s.GetApplicationForReview)

	staff.Post("/uploads/:id/verify", s.VerifyDocumentUpload)

	requirements := staff.Group("/requirements")
	requirements.Get("/", s.ListRequirements)
	requirements.Post("/", s.CreateRequirement)

	contracts := staff.Group("/contracts")
	contracts.Get("/", s.ListContracts)
	contracts.Post("/", s.CreateContract)
	contracts.Post("/:id/sign", s.SignContract)
	contracts.Post("/:id/documents", s.AttachContractDocument)
	contracts.Get("/:id/deliveries", s.ListContractDeliveries)
	contracts.Get("/:id/invoices", s.ListContractInvoices)
	contracts.Get("/:id", s.GetContract)

	deliveries := staff.Group("/deliveries")
	deliveries.Post("/", s.ScheduleDelivery)
	deliveries.Post("/:id/in-transit", s.MarkDeliveryInTransit)
	deliveries.Post("/:id/delivered", s.MarkDeliveryDelivered)
	deliveries.Post("/:id/confirm", s.ConfirmDelivery)
	deliveries.Get("/:id", s.GetDelivery)

	invoices := staff.Group("/invoices")
	invoices.Post("/", s.IssueInvoice)
	invoices.Post("/:id/pay", s.PayInvoice)
	invoices.Post("/:id/cancel", s.CancelInvoice)
	invoices.Get("/:id", s.GetInvoice)

	staff.Get("/audit-logs", s.ListAuditLogs)

	// Staff event feed websocket
	api.Get("/ws", upgradeRequired, s.AuthRequired(), s.StaffRequired(), s.StaffWebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// StaffRequired returns middleware that rejects non-staff users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		var user models.User
		if err := s.db.WithContext(c.Context()).Select("role").First(&user, userID).Error; err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if !user.IsStaff() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Staff access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					c.Locals("userID", uint(userID))
					ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
					c.SetUserContext(ctx)
					return c.Next()
				}
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != jwtIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != jwtAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		c.Locals("userID", uint(userID))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      jwtIssuer,
		"aud":      jwtAudience,
		"exp":      now.Add(time.Hour * 24).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "GCX Supplier Portal API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.dispatcher != nil {
		s.dispatcher.Start()
	}

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	// Drain queued notifications before closing external clients.
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
