// cmd/orchestrator is the service entrypoint: it wires every stage of
// the card-valuation pipeline, exposes a minimal health endpoint in the
// teacher's gin idiom, and subscribes the orchestrator to CardCreated
// events so an externally created card is valuated automatically
// (spec.md §4.6's "auto-trigger from creation event").
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/aggregator"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/authenticity"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/config"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/eventbus"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/extractor"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/imagefetch"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/ocrreasoner"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/orchestrator"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/pricing"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/pricing/source"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/store"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/telemetry"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	env := os.Getenv("GIN_MODE")
	log := telemetry.NewLogger(env)

	if env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create upload directory")
	}

	ctx := context.Background()
	mongo, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDBName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongo.Close(ctx)

	bus := eventbus.NewInMemoryBus(log)
	orch := buildOrchestrator(cfg, mongo, bus, log)

	bus.Subscribe(cardmodel.EventCardCreated, func(ctx context.Context, ev eventbus.Event) error {
		detail, ok := ev.Detail.(cardmodel.CardCreatedDetail)
		if !ok {
			return nil
		}
		_, err := orch.Run(ctx, orchestrator.Input{
			UserID:    detail.UserID,
			CardID:    detail.CardID,
			RequestID: uuid.New().String(),
			ImageRef:  detail.FrontS3Key,
			Mode:      orchestrator.ModeNewCard,
		})
		return err
	})

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "collect-iq-orchestrator"})
	})

	router.POST("/api/v1/cards/:cardId/revalue", newRevalueHandler(orch))

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   3 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting orchestrator service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

func newRevalueHandler(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			UserID       string `json:"userId" binding:"required"`
			ImageRef     string `json:"imageRef" binding:"required"`
			RequestID    string `json:"requestId"`
			ForceRefresh bool   `json:"forceRefresh"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if body.RequestID == "" {
			body.RequestID = uuid.New().String()
		}

		card, err := orch.Run(c.Request.Context(), orchestrator.Input{
			UserID:       body.UserID,
			CardID:       c.Param("cardId"),
			RequestID:    body.RequestID,
			ImageRef:     body.ImageRef,
			Mode:         orchestrator.ModeRevalue,
			ForceRefresh: body.ForceRefresh,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if cardmodel.IsKind(err, cardmodel.KindNotFound) {
				status = http.StatusNotFound
			} else if cardmodel.IsKind(err, cardmodel.KindForbidden) {
				status = http.StatusForbidden
			} else if cardmodel.IsKind(err, cardmodel.KindInvalidInput) || cardmodel.IsKind(err, cardmodel.KindInvalidCardImage) || cardmodel.IsKind(err, cardmodel.KindInappropriate) {
				status = http.StatusUnprocessableEntity
			} else if cardmodel.IsKind(err, cardmodel.KindStorageConflict) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": "card valuation failed"})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func buildOrchestrator(cfg *config.Config, mongo *store.Mongo, bus *eventbus.InMemoryBus, logger zerolog.Logger) *orchestrator.Orchestrator {
	geminiClient := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	fetcher := imagefetch.NewLocalFetcher(cfg.UploadDir)
	moderator := extractor.NewGeminiModerator(geminiClient)
	ocrEngine := extractor.NewGeminiOCREngine(geminiClient)
	extractorStage := extractor.NewExtractor(fetcher, moderator, ocrEngine)

	reasoner := ocrreasoner.NewReasoner(geminiClient, ocrreasoner.Config{
		Temperature: float32(cfg.OCRModelTemperature),
		MaxTokens:   int32(cfg.OCRModelMaxTokens),
		MaxRetries:  cfg.OCRModelMaxRetries,
	})

	adapters := buildSourceAdapters(cfg)
	pricingAggregator := pricing.NewAggregator(adapters...)
	summarizer := pricing.NewSummarizer(geminiClient)

	fileRefStore := authenticity.NewFileReferenceStore(os.Getenv("AUTHENTIC_SAMPLES_DIR"))
	refStore := authenticity.NewCachingReferenceStore(fileRefStore, 5*time.Minute)
	scorer := authenticity.NewScorer(geminiClient, refStore, authenticity.Config{
		Temperature:      float32(cfg.AuthenticityModelTemperature),
		MaxTokens:        int32(cfg.AuthenticityModelMaxTokens),
		MaxRetries:       cfg.AuthenticityModelMaxRetries,
		ReferenceDefault: cfg.AuthenticityReferenceDefault,
	})

	resultAggregator := aggregator.NewAggregator(mongo, bus, logger)
	cleanup := store.NewMongoCleanup(mongo, cfg.UploadDir)
	deadLetters := &mongoDeadLetterSink{letters: store.NewDeadLetters(mongo)}

	return orchestrator.New(
		extractorStage,
		reasoner,
		pricingAggregator,
		summarizer,
		scorer,
		resultAggregator,
		fetcher,
		cleanup,
		deadLetters,
		orchestrator.Config{
			StageTimeouts: orchestrator.StageTimeouts{
				Extractor:    cfg.ExtractorTimeout,
				OCRReasoner:  cfg.OCRReasonerTimeout,
				Pricing:      cfg.PricingTimeout,
				Authenticity: cfg.AuthenticityTimeout,
				Aggregator:   cfg.AggregatorTimeout,
			},
			OverallDeadline: cfg.OverallDeadline,
			IdempotencyTTL:  time.Hour,
		},
		logger,
	)
}

func buildSourceAdapters(cfg *config.Config) []source.Adapter {
	adapters := make([]source.Adapter, 0, len(cfg.Sources))
	for name, sc := range cfg.Sources {
		limiter := resilience.NewSlidingWindowLimiter(sc.RateLimitRequests, sc.RateLimitWindow)
		breaker := resilience.NewSourceBreaker(name, sc.BreakerThreshold, sc.BreakerTimeout)
		switch name {
		case "tcgplayer":
			adapters = append(adapters, source.NewTCGPlayerAdapter(os.Getenv("TCGPLAYER_BASE_URL"), os.Getenv("TCGPLAYER_API_KEY"), limiter, breaker))
		case "ebay":
			adapters = append(adapters, source.NewEbayAdapter(os.Getenv("EBAY_BASE_URL"), os.Getenv("EBAY_API_KEY"), limiter, breaker))
		case "population":
			adapters = append(adapters, source.NewPopulationAdapter(os.Getenv("POPULATION_BASE_URL"), os.Getenv("POPULATION_API_KEY"), limiter, breaker))
		}
	}
	return adapters
}
