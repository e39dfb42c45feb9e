package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/config"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/services"
)

func main() {
	// Load .env file if present; real env vars win.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.InitializeWithConfig(cfg); err != nil {
		log.Printf("PostgreSQL unavailable (%v), falling back to local database", err)
		localPath := filepath.Join(cfg.System.DataPath, "costos.db")
		if err := database.InitializeLocal(localPath); err != nil {
			log.Fatalf("Failed to initialize local database: %v", err)
		}
	}

	datasetSvc := services.NewDatasetService()
	costingSvc := services.NewCostingService()
	periodSvc := services.NewPeriodService()
	pnlSvc := services.NewProfitLossService(&cfg.Business)
	salesSvc := services.NewSalesService()

	// Initial load so the summary below has data to work with.
	dataset, err := datasetSvc.Request()
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Dataset loaded: %d ingredients, %d recipes, %d sales, %d orders",
		len(dataset.Ingredients), len(dataset.Recipes), len(dataset.Sales), len(dataset.Orders))

	month, err := periodSvc.Resolve(services.PeriodMonth, time.Now())
	if err != nil {
		log.Fatalf("Failed to resolve period: %v", err)
	}
	pnl := pnlSvc.ComputeForDataset(dataset, costingSvc, month)
	log.Printf("Month to date: revenue %.2f, net profit %.2f, break-even %.2f (%.0f%%)",
		pnl.Revenue, pnl.NetProfit, pnl.BreakEvenRevenue, pnl.CompletionPercent)

	sales, err := salesSvc.GetSalesInRange(month)
	if err != nil {
		log.Fatalf("Failed to load month sales: %v", err)
	}
	log.Printf("Sales recorded this month: %d", len(sales))

	worker := services.StartRefreshWorker(datasetSvc, cfg)
	defer worker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")
}
