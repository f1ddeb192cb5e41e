package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"review-radar/config"
	"review-radar/models"
	"review-radar/providers/arxiv"
	"review-radar/providers/openalex"
	"review-radar/providers/openreview"
	"review-radar/services"
)

var submissionsIngestedCounter prometheus.Counter

func init() {
	submissionsIngestedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_ingested_total",
			Help: "Total number of submissions ingested from OpenReview.",
		},
	)
	prometheus.MustRegister(submissionsIngestedCounter)
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

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to review cache database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Venue{}, &models.Paper{}, &models.PreprintMatch{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Services
	fetcher := openreview.NewFetcher(cfg, logging)
	matcher := arxiv.NewMatcher(cfg, logging)
	ingestService := services.NewIngestService(cfg, db, logging, fetcher, matcher)
	proceedingsClient := openalex.NewClient(cfg, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupIngestRoutes(router, ingestService, db, logging)
	setupVenueRoutes(router, db, logging)
	setupPaperRoutes(router, db, logging)
	setupProceedingsRoutes(router, proceedingsClient, logging)

	// Setup Cron: regelmäßige Re-Ingestion aller bekannten Venues.
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled re-ingestion...")
		count, err := ingestService.IngestAll(context.Background(), true)
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
			return
		}
		logging.Info("Cron job completed", zap.Int("submissions", count))
		submissionsIngestedCounter.Add(float64(count))
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

func setupIngestRoutes(router *gin.Engine, svc *services.IngestService, db *gorm.DB, log *zap.Logger) {
	// Startet eine Ingestion für eine Venue-Gruppe und blockiert bis zum Abschluss.
	router.POST("/ingest", func(c *gin.Context) {
		type IngestRequest struct {
			GroupID      string `json:"group_id" binding:"required"`
			Name         string `json:"name"`
			Year         *int   `json:"year"`
			WithMatching *bool  `json:"with_matching"`
		}

		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		withMatching := true
		if req.WithMatching != nil {
			withMatching = *req.WithMatching
		}

		count, err := svc.Ingest(c.Request.Context(), req.GroupID, req.Name, req.Year, withMatching)
		if err != nil {
			log.Error("Ingestion failed", zap.String("group_id", req.GroupID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		submissionsIngestedCounter.Add(float64(count))

		c.JSON(http.StatusOK, gin.H{"group_id": req.GroupID, "ingested": count})
	})
}

func setupVenueRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/venues")

	rg.GET("/", func(c *gin.Context) {
		var venues []models.Venue
		if err := db.Order("name asc").Find(&venues).Error; err != nil {
			log.Error("Database query for venues failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, venues)
	})

	// Löscht eine Venue samt aller Papers und Matches (DB-Cascade).
	rg.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")

		var venue models.Venue
		if err := db.First(&venue, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
				return
			}
			log.Error("DB error checking for venue on DELETE", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := db.Delete(&venue).Error; err != nil {
			log.Error("Venue deletion failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": venue.ID})
	})

	// Papers einer Venue, gefiltert über Query-Parameter.
	rg.GET("/:id/papers", func(c *gin.Context) {
		id := c.Param("id")

		var venue models.Venue
		if err := db.First(&venue, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		query := db.Where("venue_id = ?", venue.ID)
		if decision := c.Query("decision"); decision != "" {
			query = query.Where("decision = ?", decision)
		}
		if keyword := c.Query("keyword"); keyword != "" {
			query = query.Where("keywords LIKE ?", "%"+keyword+"%")
		}
		if raw := c.Query("min_rating"); raw != "" {
			if minRating, err := strconv.ParseFloat(raw, 64); err == nil {
				query = query.Where("avg_rating >= ?", minRating)
			}
		}
		if limit, err := atoiQuery(c, "limit"); err == nil && limit > 0 {
			query = query.Limit(limit)
		}

		var papers []models.Paper
		if err := query.Order("avg_rating desc nulls last").Find(&papers).Error; err != nil {
			log.Error("Database query for venue papers failed", zap.String("venue_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})
}

func setupPaperRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/papers")

	// Body-gesteuerter Endpunkt für die Filter-Ansicht.
	rg.POST("/query", func(c *gin.Context) {
		type PaperQuery struct {
			VenueID   uint     `json:"venue_id"`
			Decision  string   `json:"decision"`
			Keyword   string   `json:"keyword"`
			MinRating *float64 `json:"min_rating"`
			Limit     int      `json:"limit"`
		}

		var req PaperQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Paper{})

		if req.VenueID != 0 {
			query = query.Where("venue_id = ?", req.VenueID)
		}
		if req.Decision != "" {
			query = query.Where("decision = ?", req.Decision)
		}
		if req.Keyword != "" {
			query = query.Where("keywords LIKE ?", "%"+req.Keyword+"%")
		}
		if req.MinRating != nil {
			query = query.Where("avg_rating >= ?", *req.MinRating)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var papers []models.Paper
		if err := query.Order("avg_rating desc nulls last").Find(&papers).Error; err != nil {
			log.Error("Database query for papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	// Vollständige Match-Historie eines Papers, neueste zuerst.
	rg.GET("/:id/matches", func(c *gin.Context) {
		id := c.Param("id")

		var matches []models.PreprintMatch
		if err := db.Where("paper_id = ?", id).Order("matched_at desc").Find(&matches).Error; err != nil {
			log.Error("Database query for matches failed", zap.String("paper_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, matches)
	})

	// Abgeleiteter bester Match: exact vor fuzzy, dann höchster Score.
	rg.GET("/:id/best_match", func(c *gin.Context) {
		var paper models.Paper
		if err := db.First(&paper, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		match, err := services.BestMatch(db, paper.ID)
		if err != nil {
			log.Error("Best-match query failed", zap.Uint("paper_id", paper.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if match == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no match recorded"})
			return
		}
		c.JSON(http.StatusOK, match)
	})
}

func setupProceedingsRoutes(router *gin.Engine, client *openalex.Client, log *zap.Logger) {
	// Zustandslose Read-Through-Suche, keine lokale Persistenz.
	router.GET("/proceedings", func(c *gin.Context) {
		var q openalex.Query
		q.Search = c.Query("q")
		q.VenueType = c.DefaultQuery("venue_type", "any")
		q.Sort = c.DefaultQuery("sort", "relevance")
		if v, err := atoiQuery(c, "year_from"); err == nil {
			q.YearFrom = v
		}
		if v, err := atoiQuery(c, "year_to"); err == nil {
			q.YearTo = v
		}
		if v, err := atoiQuery(c, "per_page"); err == nil {
			q.PerPage = v
		}
		if v, err := atoiQuery(c, "page"); err == nil {
			q.Page = v
		}

		resp, err := client.SearchProceedings(c.Request.Context(), q)
		if err != nil {
			log.Error("Proceedings search failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	})
}

func atoiQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, errors.New("empty query param")
	}
	return strconv.Atoi(raw)
}
