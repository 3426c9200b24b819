package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/types"
)

// Filter is ANDed into every store query. Values are always bound, never
// interpolated.
type Filter struct {
	Name        string
	Competency  string
	PeriodStart string
	PeriodEnd   string
}

func FilterFromParams(p models.QueryParameters) Filter {
	return Filter{
		Name:        p.Name,
		Competency:  p.Competency,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
	}
}

func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	if f.Name != "" {
		tx = tx.Where("name = ?", f.Name)
	}
	if f.Competency != "" {
		tx = tx.Where("competency = ?", f.Competency)
	}
	if f.PeriodStart != "" && f.PeriodEnd != "" {
		tx = tx.Where("competency BETWEEN ? AND ?", f.PeriodStart, f.PeriodEnd)
	}
	return tx
}

// Query selects rows in load order unless OrderDesc names a column to sort by.
// Empty Columns selects every column; Limit <= 0 means no limit.
type Query struct {
	Filter    Filter
	Columns   []string
	OrderDesc string
	Limit     int
}

// RecordStore serves read queries over the payroll records. Reload swaps the
// whole set inside one transaction while holding the write lock, so readers
// see either the old or the new set.
type RecordStore struct {
	DB *gorm.DB

	mu     sync.RWMutex
	loaded bool
}

// OpenStore opens the sqlite database behind the store and migrates it.
func OpenStore(dsn string, logLevel logger.LogLevel) (*RecordStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open payroll database: %w", err)
	}
	return NewRecordStore(db)
}

func NewRecordStore(db *gorm.DB) (*RecordStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps a shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.PayrollRecord{}); err != nil {
		return nil, fmt.Errorf("migrate payroll table: %w", err)
	}
	return &RecordStore{DB: db}, nil
}

func (s *RecordStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reload replaces every record with the given set.
func (s *RecordStore) Reload(ctx context.Context, records []models.PayrollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PayrollRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
	if err != nil {
		return fmt.Errorf("reload payroll records: %w", err)
	}

	s.loaded = true
	return nil
}

// Ready reports whether a record set has been loaded.
func (s *RecordStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *RecordStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.DB.WithContext(ctx).Model(&models.PayrollRecord{}).Count(&n).Error
	return n, err
}

func (q Query) validate() error {
	for _, col := range q.Columns {
		if !models.IsColumn(col) {
			return fmt.Errorf("unknown payroll column %q", col)
		}
	}
	if q.OrderDesc != "" && !models.IsColumn(q.OrderDesc) {
		return fmt.Errorf("unknown payroll column %q", q.OrderDesc)
	}
	return nil
}

func (s *RecordStore) Query(ctx context.Context, q Query) ([]models.PayrollRecord, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, types.ErrStoreNotReady
	}
	return s.query(ctx, q)
}

// SumWithRows totals a monetary column over q.Filter and returns the rows
// of q, both read from the same record set. The total is null when no row
// has a value.
func (s *RecordStore) SumWithRows(ctx context.Context, q Query, column string) (decimal.NullDecimal, []models.PayrollRecord, error) {
	if !models.IsMonetaryColumn(column) {
		return decimal.NullDecimal{}, nil, fmt.Errorf("column %q is not monetary", column)
	}
	if err := q.validate(); err != nil {
		return decimal.NullDecimal{}, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return decimal.NullDecimal{}, nil, types.ErrStoreNotReady
	}

	total, err := s.sum(ctx, q.Filter, column)
	if err != nil {
		return decimal.NullDecimal{}, nil, err
	}
	rows, err := s.query(ctx, q)
	if err != nil {
		return decimal.NullDecimal{}, nil, err
	}
	return total, rows, nil
}

// query and sum expect the read lock to be held.
func (s *RecordStore) query(ctx context.Context, q Query) ([]models.PayrollRecord, error) {
	tx := q.Filter.apply(s.DB.WithContext(ctx).Model(&models.PayrollRecord{}))
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	if q.OrderDesc != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderDesc}, Desc: true})
	}
	tx = tx.Order("seq")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []models.PayrollRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query payroll records: %w", err)
	}
	return records, nil
}

func (s *RecordStore) sum(ctx context.Context, f Filter, column string) (decimal.NullDecimal, error) {
	var total *int64
	err := f.apply(s.DB.WithContext(ctx).Model(&models.PayrollRecord{})).
		Select("SUM(" + column + ")").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("sum %s: %w", column, err)
	}
	if total == nil {
		return decimal.NullDecimal{}, nil
	}
	return models.AmountFromUnits(*total).Null(), nil
}
