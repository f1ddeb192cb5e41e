package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"review-radar/config"
	"review-radar/models"
	"review-radar/providers/arxiv"
	"review-radar/providers/openreview"
	"review-radar/services"
)

var (
	venueName string
	venueYear int
	noMatch   bool
)

// rootCmd ist der CLI-Einstieg für manuelle Ingestion-Läufe, z.B.:
//
//	ingest ICLR.cc/2024/Conference --name "ICLR 2024" --year 2024
var rootCmd = &cobra.Command{
	Use:          "ingest <group-id>",
	Short:        "Lädt die OpenReview-Submissions einer Venue in den lokalen Cache",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("can't initialize zap logger: %w", err)
		}
		defer logging.Sync()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}

		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.AutoMigrate(&models.Venue{}, &models.Paper{}, &models.PreprintMatch{}); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}

		svc := services.NewIngestService(cfg, db, logging,
			openreview.NewFetcher(cfg, logging),
			arxiv.NewMatcher(cfg, logging),
		)

		var year *int
		if venueYear != 0 {
			year = &venueYear
		}

		count, err := svc.Ingest(cmd.Context(), args[0], venueName, year, !noMatch)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d submissions from %s\n", count, args[0])
		return nil
	},
}

func main() {
	rootCmd.Flags().StringVar(&venueName, "name", "", "Anzeigename der Venue (Default: Gruppen-Prefix)")
	rootCmd.Flags().IntVar(&venueYear, "year", 0, "Jahr der Venue")
	rootCmd.Flags().BoolVar(&noMatch, "no-match", false, "arXiv-Abgleich überspringen")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
