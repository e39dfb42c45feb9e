package services

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// DatasetService owns the shared dataset snapshot the calculation services
// operate on, and guards its reload with a single-flight group: while a load
// is in flight, every concurrent Request joins it and receives the identical
// result instead of starting a duplicate load. After completion (success or
// failure) the next Request starts a fresh load.
type DatasetService struct {
	db    *gorm.DB
	group singleflight.Group

	// loader is the underlying load operation; replaceable in tests.
	loader func() (*models.Dataset, error)

	mu      sync.RWMutex
	current *models.Dataset
}

// NewDatasetService creates a new dataset service
func NewDatasetService() *DatasetService {
	s := &DatasetService{
		db: database.GetDB(),
	}
	s.loader = s.load
	return s
}

// Request loads the full dataset, or joins the load already in flight.
// All concurrent callers get the same snapshot pointer.
func (s *DatasetService) Request() (*models.Dataset, error) {
	v, err, _ := s.group.Do("dataset", func() (interface{}, error) {
		dataset, err := s.loader()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.current = dataset
		s.mu.Unlock()

		return dataset, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Dataset), nil
}

// Current returns the last successfully loaded snapshot, or nil when no
// load has completed yet. It never triggers a load.
func (s *DatasetService) Current() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// load fetches the whole catalog in one pass.
func (s *DatasetService) load() (*models.Dataset, error) {
	dataset := &models.Dataset{LoadedAt: time.Now()}

	if err := s.db.Order("name ASC").Find(&dataset.Ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	if err := s.db.Preload("Lines").Order("name ASC").Find(&dataset.Recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if err := s.db.Order("sold_at DESC").Find(&dataset.Sales).Error; err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	if err := s.db.Preload("Lines").Order("order_date DESC").Find(&dataset.Orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if err := s.db.Order("name ASC").Find(&dataset.Suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	if err := s.db.Find(&dataset.Expenses).Error; err != nil {
		return nil, fmt.Errorf("failed to load fixed expenses: %w", err)
	}

	return dataset, nil
}
