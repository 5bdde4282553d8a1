package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"praktika/internal/config"
	"praktika/internal/database"
	"praktika/internal/export"
	"praktika/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Renders the schedule for a date range into an xlsx file, for handing
// out when the Sheets mirror is unavailable.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath    = flag.String("config", "configs/config.yaml", "path to config.yaml")
		resourcesPath = flag.String("resources", "configs/practice.yaml", "path to practice.yaml")
		fromStr       = flag.String("from", "", "start date (YYYY-MM-DD), defaults to today")
		days          = flag.Int("days", 7, "number of days to export")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Practice.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	data, err := os.ReadFile(*resourcesPath)
	if err != nil {
		return fmt.Errorf("read resources: %w", err)
	}
	var resources struct {
		Staff    []models.Staff   `yaml:"staff"`
		Rooms    []models.Room    `yaml:"rooms"`
		Services []models.Service `yaml:"services"`
	}
	if err = yaml.Unmarshal(data, &resources); err != nil {
		return fmt.Errorf("parse resources: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	db.SetResources(resources.Staff, resources.Rooms, resources.Services)

	start := time.Now().In(loc)
	if *fromStr != "" {
		start, err = time.ParseInLocation("2006-01-02", *fromStr, loc)
		if err != nil {
			return fmt.Errorf("parse from date: %w", err)
		}
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, *days)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exporter := export.NewExporter(db, cfg.Exports.Path, loc, &logger)
	path, err := exporter.ScheduleToExcel(ctx, start, end)
	if err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}

	fmt.Printf("done: %s\n", path)
	return nil
}
