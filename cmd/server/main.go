package main

import (
	"fmt"
	"log"
	"os"

	"github.com/karake-shoya/cheflens/config"
	httpDelivery "github.com/karake-shoya/cheflens/internal/delivery/http"
	"github.com/karake-shoya/cheflens/internal/infrastructure/catalog"
	"github.com/karake-shoya/cheflens/internal/infrastructure/imaging"
	"github.com/karake-shoya/cheflens/internal/infrastructure/vision"
	"github.com/karake-shoya/cheflens/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ChefLens Detection Engine v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Load the ingredient catalog once; it is immutable for process lifetime
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Initialize infrastructure dependencies
	visionClient := vision.NewClient(cfg.Vision.APIKey, cfg.Vision.BaseURL)
	if cfg.Server.Environment == "development" {
		visionClient.SetDebug(true)
		log.Printf("Vision client debug mode enabled")
	}
	if cfg.Vision.APIKey != "" {
		log.Printf("Vision API configured: %s", cfg.Vision.BaseURL)
	}

	cropper := imaging.NewCropper()

	// Initialize usecase layer
	translator := usecase.NewTranslator(cat.Dictionary)
	classifier := usecase.NewClassifier(cat, translator)

	labelService := usecase.NewLabelDetectionService(visionClient, classifier, translator, usecase.LabelConfig{
		ConfidenceThreshold: cat.ConfidenceThreshold,
		ScoreGap:            cfg.Detection.ScoreGap,
		CategoryGap:         cfg.Detection.CategoryGap,
		MaxResults:          cfg.Detection.MaxResults,
		EnableDebugLogging:  cfg.Detection.EnableDebugLogging,
	})
	objectService := usecase.NewObjectDetectionService(visionClient, cat.ObjectConfidenceThreshold)
	webService := usecase.NewWebDetectionService(visionClient, classifier, translator, cat, usecase.WebConfig{
		EntityThreshold:    cfg.Detection.WebEntityThreshold,
		MaxResults:         cfg.Detection.MaxResults,
		EnableDebugLogging: cfg.Detection.EnableDebugLogging,
	})
	textService := usecase.NewTextDetectionService(visionClient, classifier, translator, cat, usecase.TextConfig{
		MaxResults:         cfg.Detection.MaxResults,
		EnableDebugLogging: cfg.Detection.EnableDebugLogging,
	})
	fusionService := usecase.NewFusionService(
		objectService, textService, webService, labelService,
		cropper, classifier, translator,
		usecase.FusionConfig{
			MinCropSize:        cat.MinCropSize,
			TextModeWeight:     cfg.Detection.TextModeWeight,
			LabelModeScore:     cfg.Detection.LabelModeScore,
			MaxFallbackResults: cfg.Detection.MaxResults,
			EnableDebugLogging: cfg.Detection.EnableDebugLogging,
		},
	)

	log.Printf("Detection: confidence=%.2f, object=%.2f, score_gap=%.2f, category_gap=%.2f",
		cat.ConfidenceThreshold, cat.ObjectConfidenceThreshold,
		cfg.Detection.ScoreGap, cfg.Detection.CategoryGap)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(fusionService, labelService, webService, textService, objectService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
