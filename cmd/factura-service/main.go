package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/factura-service/internal/api"
	"github.com/hypernova-labs/factura-service/internal/config"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/email"
	"github.com/hypernova-labs/factura-service/internal/services"
	"github.com/hypernova-labs/factura-service/internal/workflows"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting Factura Service...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	// Conectar a Redis (opcional, el snapshot cache se degrada sin él)
	redis, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis: %v", err)
		redis = nil
	} else {
		defer redis.Close()
	}

	// Inicializar cliente de Supabase para el archivado de PDFs
	var storageService *services.StorageService
	if cfg.Supabase.StorageEndpoint != "" && cfg.Supabase.AccessKeyID != "" && cfg.Supabase.SecretAccessKey != "" {
		supabaseClient, err := database.NewSupabaseClient(&cfg.Supabase, logger)
		if err != nil {
			logger.Warnf("Error initializing Supabase client: %v", err)
		} else {
			if err := supabaseClient.HealthCheck(); err != nil {
				logger.Warnf("Supabase health check failed: %v", err)
			} else {
				logger.Info("Supabase storage connection healthy")
			}
			storageService = services.NewStorageService(supabaseClient, database.NewInvoiceFilesRepository(db, logger), logger)
		}
	} else {
		logger.Warn("Supabase storage credentials not provided, PDF archival will not be available")
	}

	// Inicializar servicio de Resend (modo mock sin API key)
	resendService := email.NewResendService(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, logger)

	// Inicializar cliente de Inngest
	inngestClient, err := workflows.NewInngestClient(cfg, logger)
	if err != nil {
		logger.Warnf("Error initializing Inngest client: %v", err)
		inngestClient = nil
	}

	if inngestClient != nil {
		// Registrar workflows (barrido de shares expirados)
		if err := inngestClient.RegisterWorkflows(database.NewShareRepository(db, logger)); err != nil {
			logger.Warnf("Error registering workflows: %v", err)
		}
	} else {
		logger.Warn("Inngest credentials not provided, workflows will not be available")
	}

	// Inicializar servicios
	invoiceService := services.NewInvoiceService(db, storageService, logger)
	shareService := services.NewShareService(db, redis, inngestClient, cfg, logger)
	templateService := services.NewTemplateService(db, logger)
	autosaveManager := services.NewAutosaveManager(db, cfg.Autosave.Debounce, logger)

	// Inicializar repositorio de API Keys
	apiKeyRepo := database.NewAPIKeyRepository(db, logger)

	// Inicializar API
	apiHandler := api.NewAPI(
		invoiceService,
		shareService,
		templateService,
		resendService,
		autosaveManager,
		apiKeyRepo,
		logger,
	)

	// Configurar router
	router := setupRouter(apiHandler, cfg)

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown graceful del servidor
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// Descargar los autosaves pendientes antes de salir
	autosaveManager.FlushAll()

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "factura-service",
			"version":   "1.0.0",
		})
	})

	// Vista pública de facturas compartidas (sin autenticación)
	router.GET("/share/:token", apiHandler.ViewShare)
	router.GET("/share/:token/pdf", apiHandler.ViewSharePDF)

	// Gestión de shares (misma superficie que usa la UI)
	share := router.Group("/share")
	{
		share.POST("/create", apiHandler.CreateShare)
		share.DELETE("/revoke", apiHandler.RevokeShare)
		share.POST("/email", apiHandler.SendShareEmail)
	}

	// API v1 (autenticada por API key en cada handler)
	v1 := router.Group("/v1")
	{
		// Invoices
		v1.POST("/invoices", apiHandler.UpsertInvoice)
		v1.GET("/invoices", apiHandler.ListInvoices)
		v1.GET("/invoices/:id", apiHandler.GetInvoice)
		v1.DELETE("/invoices/:id", apiHandler.DeleteInvoice)
		v1.POST("/invoices/:id/autosave", apiHandler.AutosaveInvoice)
		v1.GET("/invoices/:id/pdf", apiHandler.GetInvoicePDF)
		v1.GET("/invoices/:id/shares", apiHandler.ListInvoiceShares)

		// Templates
		v1.POST("/templates", apiHandler.CreateTemplate)
		v1.GET("/templates", apiHandler.ListTemplates)
		v1.POST("/templates/:id/apply", apiHandler.ApplyTemplate)
		v1.DELETE("/templates/:id", apiHandler.DeleteTemplate)

		// API keys
		v1.POST("/apikeys", apiHandler.CreateAPIKey)
	}

	return router
}
