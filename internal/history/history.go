// Package history keeps an append-only audit trail of processing runs.
// Statements themselves are never stored.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/insightdelivered/card-statement-converter/internal/processor"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ProcessingRun is one processed upload.
type ProcessingRun struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`
	Filename     string    `gorm:"type:varchar(255)" json:"filename,omitempty"`
	Bank         string    `gorm:"type:varchar(32);index" json:"bank"`
	Success      bool      `gorm:"not null;index" json:"success"`
	Code         string    `gorm:"type:varchar(32)" json:"code,omitempty"`
	Message      string    `gorm:"type:varchar(255)" json:"message"`
	Transactions int       `gorm:"not null;default:0" json:"transactions"`
	Pages        int       `gorm:"not null;default:0" json:"pages"`
	DurationMS   int64     `gorm:"not null;default:0" json:"durationMs"`
}

// BeforeCreate hook for ProcessingRun
func (r *ProcessingRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Store persists ProcessingRuns.
type Store struct {
	db *gorm.DB
}

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	return NewStore(db)
}

// NewStore wraps an existing connection and migrates the schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ProcessingRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record implements processor.Recorder.
func (s *Store) Record(ctx context.Context, run processor.Run) error {
	row := ProcessingRun{
		ID:           run.ID,
		Filename:     run.Filename,
		Bank:         string(run.Bank),
		Success:      run.Success,
		Code:         string(run.Code),
		Message:      run.Message,
		Transactions: run.Transactions,
		Pages:        run.Pages,
		DurationMS:   run.Duration.Milliseconds(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record processing run: %w", err)
	}
	return nil
}

// Summary aggregates every recorded run.
type Summary struct {
	TotalRuns         int64            `json:"totalRuns"`
	SuccessfulRuns    int64            `json:"successfulRuns"`
	FailedRuns        int64            `json:"failedRuns"`
	TotalTransactions int64            `json:"totalTransactions"`
	RunsByBank        map[string]int64 `json:"runsByBank"`
	FailuresByCode    map[string]int64 `json:"failuresByCode"`
	LastRunAt         *time.Time       `json:"lastRunAt"`
}

type groupCount struct {
	Label string
	Count int64
}

// Summary returns totals over all runs.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	db := s.db.WithContext(ctx)
	sum := Summary{
		RunsByBank:     map[string]int64{},
		FailuresByCode: map[string]int64{},
	}

	if err := db.Model(&ProcessingRun{}).Count(&sum.TotalRuns).Error; err != nil {
		return Summary{}, fmt.Errorf("count runs: %w", err)
	}
	if sum.TotalRuns == 0 {
		return sum, nil
	}
	if err := db.Model(&ProcessingRun{}).Where("success = ?", true).Count(&sum.SuccessfulRuns).Error; err != nil {
		return Summary{}, fmt.Errorf("count successful runs: %w", err)
	}
	sum.FailedRuns = sum.TotalRuns - sum.SuccessfulRuns

	if err := db.Model(&ProcessingRun{}).
		Select("COALESCE(SUM(transactions), 0)").
		Where("success = ?", true).
		Scan(&sum.TotalTransactions).Error; err != nil {
		return Summary{}, fmt.Errorf("sum transactions: %w", err)
	}

	var byBank []groupCount
	if err := db.Model(&ProcessingRun{}).
		Select("bank AS label, COUNT(*) AS count").
		Group("bank").
		Scan(&byBank).Error; err != nil {
		return Summary{}, fmt.Errorf("group runs by bank: %w", err)
	}
	for _, g := range byBank {
		sum.RunsByBank[g.Label] = g.Count
	}

	var byCode []groupCount
	if err := db.Model(&ProcessingRun{}).
		Select("code AS label, COUNT(*) AS count").
		Where("success = ?", false).
		Group("code").
		Scan(&byCode).Error; err != nil {
		return Summary{}, fmt.Errorf("group failures by code: %w", err)
	}
	for _, g := range byCode {
		sum.FailuresByCode[g.Label] = g.Count
	}

	var last ProcessingRun
	if err := db.Order("created_at DESC").Limit(1).Find(&last).Error; err != nil {
		return Summary{}, fmt.Errorf("latest run: %w", err)
	}
	if !last.CreatedAt.IsZero() {
		sum.LastRunAt = &last.CreatedAt
	}
	return sum, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]ProcessingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []ProcessingRun
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
