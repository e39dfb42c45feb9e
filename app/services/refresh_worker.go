package services

import (
	"log"
	"sync"
	"time"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/config"
)

// RefreshWorker periodically refreshes the shared dataset through the
// single-flight guard and logs the ingredients projected to run out soon.
type RefreshWorker struct {
	datasetSvc     *DatasetService
	consumptionSvc *ConsumptionService
	windowDays     int
	horizonDays    int
	interval       time.Duration
	stopChan       chan struct{}
	stopOnce       sync.Once
}

// StartRefreshWorker initializes and starts the refresh worker
func StartRefreshWorker(datasetSvc *DatasetService, cfg *config.AppConfig) *RefreshWorker {
	worker := &RefreshWorker{
		datasetSvc:     datasetSvc,
		consumptionSvc: NewConsumptionService(),
		windowDays:     cfg.Business.ConsumptionWindowDays,
		horizonDays:    cfg.Business.ReorderHorizonDays,
		interval:       time.Duration(cfg.System.RefreshIntervalMinutes) * time.Minute,
		stopChan:       make(chan struct{}),
	}

	go worker.run()

	log.Printf("Refresh worker started with interval: %v", worker.interval)
	return worker
}

// run is the main refresh loop
func (worker *RefreshWorker) run() {
	ticker := time.NewTicker(worker.interval)
	defer ticker.Stop()

	// Initial refresh
	worker.performRefresh()

	for {
		select {
		case <-ticker.C:
			worker.performRefresh()
		case <-worker.stopChan:
			log.Println("Refresh worker stopped")
			return
		}
	}
}

// Stop stops the refresh worker. Safe to call more than once and at any
// point relative to startup; the loop observes the closed channel whenever
// it reaches it.
func (worker *RefreshWorker) Stop() {
	worker.stopOnce.Do(func() {
		close(worker.stopChan)
	})
}

// performRefresh reloads the dataset and logs projected stockouts.
func (worker *RefreshWorker) performRefresh() {
	startTime := time.Now()

	dataset, err := worker.datasetSvc.Request()
	if err != nil {
		log.Printf("Dataset refresh failed: %v", err)
		return
	}

	needs := worker.consumptionSvc.ProjectReorderNeeds(dataset, worker.windowDays, worker.horizonDays, time.Now())
	for _, need := range needs {
		if need.Alert == AlertCritical {
			log.Printf("STOCK CRITICO: %s (quedan %d días, stock %.2f)", need.Name, need.DaysOfStock, need.Stock)
		}
	}

	log.Printf("Dataset refreshed in %v: %d ingredients, %d recipes, %d reorder needs",
		time.Since(startTime), len(dataset.Ingredients), len(dataset.Recipes), len(needs))
}
