// Package generationlog persists one summary row per resolved news request
// through a buffered pool of background writers.
package generationlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/repositories"
	"github.com/upb/news-gateway/services"
	"go.uber.org/zap"
)

// Page size bounds for ListRecent
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service writes generation records asynchronously
type Service struct {
	repo        repositories.GenerationLogRepository
	logger      *zap.Logger
	records     chan *models.GenerationRecord
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	dropped     int
	mu          sync.Mutex
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent writers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new Service instance
func NewService(repo repositories.GenerationLogRepository, logger *zap.Logger, config Config) *Service {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}

	return &Service{
		repo:        repo,
		logger:      logger,
		records:     make(chan *models.GenerationRecord, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background writers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("generation log already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started generation log",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting records and waits for queued ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("generation log not running")
	}
	s.stopped = true
	pending := len(s.records)
	close(s.records)
	s.mu.Unlock()

	s.logger.Info("stopping generation log", zap.Int("pending_records", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("generation log stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("generation log stop timeout after %v", timeout)
	}
}

// Record queues a record without blocking. Records are dropped when the
// buffer is full or the service is not running.
func (s *Service) Record(_ context.Context, record *models.GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		s.dropped++
		return
	}

	select {
	case s.records <- record:
	default:
		s.dropped++
		s.logger.Warn("generation log buffer full, dropping record",
			zap.String("request_id", record.RequestID),
			zap.String("provider", record.Provider))
	}
}

// ListRecent returns the newest records first
func (s *Service) ListRecent(ctx context.Context, limit, offset int) ([]*models.GenerationRecord, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), nil).WithDetail("limit", limit)
	}
	if offset < 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "offset cannot be negative", nil).
			WithDetail("offset", offset)
	}

	records, err := s.repo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to list generation log", err)
	}
	if records == nil {
		records = []*models.GenerationRecord{}
	}
	return records, nil
}

// ProviderMetrics aggregates the records of the trailing window per provider
func (s *Service) ProviderMetrics(ctx context.Context, window time.Duration) ([]*repositories.ProviderMetrics, error) {
	if window <= 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "window must be positive", nil)
	}

	metrics, err := s.repo.GetProviderMetrics(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to aggregate generation log", err)
	}
	if metrics == nil {
		metrics = []*repositories.ProviderMetrics{}
	}
	return metrics, nil
}

// worker writes records from the channel until it is closed
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("generation log worker started", zap.Int("worker_id", id))

	for record := range s.records {
		if err := s.write(record); err != nil {
			s.logger.Error("failed to write generation record",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("request_id", record.RequestID))
		}
	}

	s.logger.Debug("generation log worker stopped", zap.Int("worker_id", id))
}

func (s *Service) write(record *models.GenerationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.repo.Insert(ctx, record)
}

// GetStats returns statistics about the generation log
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:     s.bufferSize,
		PendingRecords: len(s.records),
		WorkerCount:    s.workerCount,
		Dropped:        s.dropped,
		Running:        s.started && !s.stopped,
	}
}

// Stats represents generation log statistics
type Stats struct {
	BufferSize     int  `json:"buffer_size"`
	PendingRecords int  `json:"pending_records"`
	WorkerCount    int  `json:"worker_count"`
	Dropped        int  `json:"dropped"`
	Running        bool `json:"running"`
}
