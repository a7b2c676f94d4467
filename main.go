package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"journal-pulse/config"
	"journal-pulse/llm"
	"journal-pulse/models"
	"journal-pulse/services"
	"journal-pulse/storage"
	"journal-pulse/workbook/xlsx"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	importedRowsCounter          prometheus.Counter
	importedSubscriptionsCounter prometheus.Counter
	chatFallbackCounter          prometheus.Counter
)

func init() {
	importedRowsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imported_rows_total",
			Help: "Total number of spreadsheet rows ingested.",
		},
	)
	importedSubscriptionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imported_subscriptions_total",
			Help: "Total number of subscriptions created during ingestion.",
		},
	)
	chatFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_llm_fallbacks_total",
			Help: "Chat answers served by the local template because the LLM call failed or is disabled.",
		},
	)
	prometheus.MustRegister(importedRowsCounter, importedSubscriptionsCounter, chatFallbackCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Database connection. The handle is owned here and passed down; no
	// package holds an ambient global connection.
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	if gin.Mode() == gin.DebugMode {
		logging.Info("Debug mode detected. Dropping tables for fresh start.")
		db.Migrator().DropTable(&models.University{}, &models.Journal{},
			&models.Subscription{}, &models.BrowsingEvent{}, &models.ImportRun{})
	}
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.University{}, &models.Journal{},
		&models.Subscription{}, &models.BrowsingEvent{}, &models.ImportRun{})

	// Optional S3 archive for processed spreadsheets
	var s3Client *s3.Client
	if cfg.ArchiveEnabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		logging.Info("S3 archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	// Optional LLM formatting for the chat assistant
	var completer services.Completer
	if cfg.LLMEndpoint != "" {
		llmClient, err := llm.NewClient(&llm.Config{
			Endpoint:   cfg.LLMEndpoint,
			Model:      cfg.LLMModel,
			APIKey:     cfg.LLMAPIKey,
			Timeout:    cfg.LLMTimeout,
			MaxRetries: cfg.LLMMaxRetries,
		}, logging)
		if err != nil {
			logging.Fatal("LLM client creation failed", zap.Error(err))
		}
		completer = llmClient
		logging.Info("LLM formatting enabled", zap.String("model", cfg.LLMModel))
	} else {
		logging.Info("LLM formatting disabled, chat uses templated reports only")
	}

	// Setup Services
	reader := xlsx.NewReader(logging)
	synth := services.NewRandomSynthesizer(rand.New(rand.NewSource(time.Now().UnixNano())))
	importService := services.NewImportService(cfg, db, s3Client, logging, reader, synth)
	reportService := services.NewReportService(db, logging)
	assistant := services.NewAssistant(reportService, completer, logging)

	// Initial ingestion pass; skipped automatically when data already exists.
	go func() {
		stats, err := importService.Run(context.Background())
		if err != nil {
			logging.Error("Initial ingestion run failed", zap.Error(err))
			return
		}
		importedRowsCounter.Add(float64(stats.RowsProcessed))
		importedSubscriptionsCounter.Add(float64(stats.NewSubscriptions))
	}()

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "journal-pulse"})
	})

	// Setup Routes
	setupUniversityRoutes(router, db, logging)
	setupJournalRoutes(router, db, logging)
	setupSubscriptionRoutes(router, db, logging)
	setupBrowsingRoutes(router, db, logging)
	setupStatsRoutes(router, db, reportService, logging)
	setupChatRoutes(router, assistant, logging)
	setupIngestRoutes(router, importService, logging)

	// Setup Cron: periodic re-run picks up a database that was reset or
	// wiped out-of-band; a populated database makes it a cheap no-op.
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled ingestion job...")
		stats, err := importService.Run(context.Background())
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
			return
		}
		importedRowsCounter.Add(float64(stats.RowsProcessed))
		importedSubscriptionsCounter.Add(float64(stats.NewSubscriptions))
		logging.Info("Cron job completed", zap.Int("rows", stats.RowsProcessed))
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupUniversityRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/universities")

	rg.GET("/", func(c *gin.Context) {
		var universities []models.University
		if err := db.Order("name asc").Find(&universities).Error; err != nil {
			log.Error("Database query for universities failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, universities)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var university models.University
		if err := db.First(&university, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "university not found"})
				return
			}
			log.Error("DB error fetching university", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Enrich with subscription count and spend
		var subscriptions int64
		var totalCost float64
		db.Model(&models.Subscription{}).
			Where("university_id = ? AND status = ?", university.ID, models.SubscriptionStatusActive).
			Count(&subscriptions)
		db.Model(&models.Subscription{}).
			Where("university_id = ? AND status = ?", university.ID, models.SubscriptionStatusActive).
			Select("COALESCE(SUM(annual_cost), 0)").Scan(&totalCost)

		c.JSON(http.StatusOK, gin.H{
			"university":           university,
			"active_subscriptions": subscriptions,
			"annual_spend":         totalCost,
		})
	})
}

func setupJournalRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/journals")

	rg.GET("/", func(c *gin.Context) {
		var journals []models.Journal
		if err := db.Order("title asc").Find(&journals).Error; err != nil {
			log.Error("Database query for journals failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, journals)
	})

	// Body-driven endpoint for complex filter queries
	rg.POST("/query", func(c *gin.Context) {
		type JournalQuery struct {
			Publisher   string `json:"publisher"`
			SubjectArea string `json:"subject_area"`
			Keyword     string `json:"keyword"`
			Limit       int    `json:"limit"`
		}

		var req JournalQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Journal{})

		if req.Publisher != "" {
			query = query.Where("publisher = ?", req.Publisher)
		}
		if req.SubjectArea != "" {
			query = query.Where("subject_area = ?", req.SubjectArea)
		}
		if req.Keyword != "" {
			query = query.Where("LOWER(keywords) LIKE ?", "%"+strings.ToLower(req.Keyword)+"%")
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var journals []models.Journal
		if err := query.Order("title asc").Find(&journals).Error; err != nil {
			log.Error("Database query for journals failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, journals)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var journal models.Journal
		if err := db.First(&journal, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
				return
			}
			log.Error("DB error fetching journal", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, journal)
	})
}

func setupSubscriptionRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/subscriptions")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Subscription{})

		if university := c.Query("university"); university != "" {
			query = query.Joins("JOIN universities ON universities.id = subscriptions.university_id").
				Where("universities.name = ?", university)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("subscriptions.status = ?", status)
		}

		var subscriptions []models.Subscription
		if err := query.Order("subscriptions.annual_cost desc").Find(&subscriptions).Error; err != nil {
			log.Error("Database query for subscriptions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, subscriptions)
	})
}

func setupBrowsingRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/browsing-events")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.BrowsingEvent{})

		if journalID := c.Query("journal_id"); journalID != "" {
			query = query.Where("journal_id = ?", journalID)
		}
		if universityID := c.Query("university_id"); universityID != "" {
			query = query.Where("university_id = ?", universityID)
		}

		limit := 100
		if raw := c.Query("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 1000 {
				limit = v
			}
		}

		var events []models.BrowsingEvent
		if err := query.Order("view_date desc").Limit(limit).Find(&events).Error; err != nil {
			log.Error("Database query for browsing events failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, events)
	})
}

func setupStatsRoutes(router *gin.Engine, db *gorm.DB, reports *services.ReportService, log *zap.Logger) {
	router.GET("/stats", func(c *gin.Context) {
		var universities, journals, subscriptions, events int64
		db.Model(&models.University{}).Count(&universities)
		db.Model(&models.Journal{}).Count(&journals)
		db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionStatusActive).Count(&subscriptions)
		db.Model(&models.BrowsingEvent{}).Count(&events)

		var totalCost float64
		db.Model(&models.Subscription{}).
			Where("status = ?", models.SubscriptionStatusActive).
			Select("COALESCE(SUM(annual_cost), 0)").Scan(&totalCost)

		c.JSON(http.StatusOK, gin.H{
			"universities":         universities,
			"journals":             journals,
			"active_subscriptions": subscriptions,
			"browsing_events":      events,
			"total_annual_spend":   totalCost,
		})
	})

	router.GET("/stats/overview", func(c *gin.Context) {
		overview, err := reports.Overview()
		if err != nil {
			log.Error("Overview report failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"overview": overview})
	})

	router.GET("/import-runs", func(c *gin.Context) {
		var runs []models.ImportRun
		if err := db.Order("created_at desc").Limit(100).Find(&runs).Error; err != nil {
			log.Error("Database query for import runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})
}

func setupChatRoutes(router *gin.Engine, assistant *services.Assistant, log *zap.Logger) {
	router.POST("/chat", func(c *gin.Context) {
		var req struct {
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'message' field is required."})
			return
		}

		reply, err := assistant.Answer(c.Request.Context(), req.Message)
		if err != nil {
			log.Error("Chat answer failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate answer"})
			return
		}
		if reply.Source == "template" {
			chatFallbackCounter.Inc()
		}

		c.JSON(http.StatusOK, reply)
	})
}

func setupIngestRoutes(router *gin.Engine, importService *services.ImportService, log *zap.Logger) {
	rg := router.Group("/ingest")

	rg.POST("/run", func(c *gin.Context) {
		go func() {
			stats, err := importService.Run(context.Background())
			if err != nil {
				log.Error("Async ingestion run failed", zap.Error(err))
				return
			}
			importedRowsCounter.Add(float64(stats.RowsProcessed))
			importedSubscriptionsCounter.Add(float64(stats.NewSubscriptions))
			log.Info("Async ingestion run completed",
				zap.Int("rows", stats.RowsProcessed),
				zap.Int("subscriptions", stats.NewSubscriptions))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Ingestion run triggered."})
	})

	rg.POST("/reset", func(c *gin.Context) {
		go func() {
			stats, err := importService.Reset(context.Background())
			if err != nil {
				log.Error("Async reset failed", zap.Error(err))
				return
			}
			importedRowsCounter.Add(float64(stats.RowsProcessed))
			importedSubscriptionsCounter.Add(float64(stats.NewSubscriptions))
			log.Info("Async reset completed",
				zap.Int("rows", stats.RowsProcessed),
				zap.Int("subscriptions", stats.NewSubscriptions))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Full reset and re-ingestion triggered."})
	})
}
