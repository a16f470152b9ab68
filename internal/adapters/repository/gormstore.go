package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/types"
	"github.com/okian/talentradar/pkg/metrics"
)

// candidateRow is the durable form of a candidate. The full record lives in
// a JSON column; ranking and filter fields are copied into indexed columns.
type candidateRow struct {
	ID             string          `gorm:"primaryKey;size:64"`
	Name           string          `gorm:"not null"`
	Email          string
	CurrentTitle   string
	CurrentCompany string          `gorm:"index"`
	Total          float64         `gorm:"index"`
	Tier           string          `gorm:"size:16;index"`
	Record         model.Candidate `gorm:"serializer:json;type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (candidateRow) TableName() string { return "candidates" }

func toRow(c model.Candidate) candidateRow {
	return candidateRow{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		CurrentTitle:   c.CurrentTitle,
		CurrentCompany: c.CurrentCompany,
		Total:          c.Score.Total,
		Tier:           c.Tier.String(),
		Record:         c,
	}
}

// experienceCompanies expands the experiences array of the JSON record,
// treating a null or missing array as empty.
const experienceCompanies = `EXISTS (SELECT 1 FROM jsonb_array_elements(
	CASE jsonb_typeof(record->'experiences') WHEN 'array' THEN record->'experiences' ELSE '[]'::jsonb END
) AS e WHERE e->>'company' ILIKE ?)`

// GormStore is a Store backed by PostgreSQL through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// OpenGormStore connects to PostgreSQL and migrates the candidates table.
func OpenGormStore(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return NewGormStore(ctx, db)
}

// NewGormStore wraps an open gorm handle and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&candidateRow{}); err != nil {
		return nil, fmt.Errorf("migrate candidates: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert implements Store.Upsert.
func (s *GormStore) Upsert(ctx context.Context, c model.Candidate) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := checkWritable(c); err != nil {
		return false, err
	}

	created := false
	row := toRow(c)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&candidateRow{}).Where("id = ?", c.ID).Count(&n).Error; err != nil {
			return err
		}
		created = n == 0
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "current_title", "current_company", "total", "tier", "record", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return false, fmt.Errorf("upsert candidate %s: %w", c.ID, err)
	}
	return created, nil
}

// Get implements Store.Get.
func (s *GormStore) Get(ctx context.Context, id string) (model.Candidate, error) {
	var row candidateRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Candidate{}, ErrNotFound
		}
		return model.Candidate{}, fmt.Errorf("find candidate %s: %w", id, err)
	}
	return row.Record, nil
}

// Delete implements Store.Delete.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&candidateRow{})
	if res.Error != nil {
		return fmt.Errorf("delete candidate %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// filterScope translates a Filter into SQL conditions.
func filterScope(f Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Tier != nil {
			db = db.Where("tier = ?", f.Tier.String())
		}
		if f.MinScore != 0 {
			db = db.Where("total >= ?", f.MinScore)
		}
		if f.Company != "" {
			like := "%" + f.Company + "%"
			db = db.Where("(current_company ILIKE ? OR "+experienceCompanies+")", like, like)
		}
		if f.Query != "" {
			like := "%" + f.Query + "%"
			db = db.Where("(name ILIKE ? OR email ILIKE ? OR current_title ILIKE ? OR current_company ILIKE ?)", like, like, like, like)
		}
		return db
	}
}

func ranked(db *gorm.DB) *gorm.DB {
	return db.Order("total DESC").Order("id ASC")
}

// List implements Store.List.
func (s *GormStore) List(ctx context.Context, f Filter) (Page, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := validLimit(f); err != nil {
		return Page{}, err
	}

	var total int64
	db := s.db.WithContext(ctx).Model(&candidateRow{}).Scopes(filterScope(f))
	if err := db.Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("count candidates: %w", err)
	}

	var rows []candidateRow
	err := s.db.WithContext(ctx).Scopes(filterScope(f), ranked).
		Limit(f.Limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return Page{}, fmt.Errorf("list candidates: %w", err)
	}

	page := Page{Candidates: make([]model.Candidate, 0, len(rows)), Total: int(total)}
	for _, r := range rows {
		page.Candidates = append(page.Candidates, r.Record)
	}
	return page, nil
}

// Rank implements Store.Rank as one plus the number of distinct higher totals.
func (s *GormStore) Rank(ctx context.Context, id string) (types.Entry, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	var higher int64
	err = s.db.WithContext(ctx).Model(&candidateRow{}).
		Where("total > ?", c.Score.Total).
		Distinct("total").Count(&higher).Error
	if err != nil {
		return types.Entry{}, fmt.Errorf("rank candidate %s: %w", id, err)
	}
	e := entryOf(c)
	e.Rank = int(higher) + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *GormStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	var rows []candidateRow
	if err := s.db.WithContext(ctx).Scopes(ranked).Limit(n).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("top candidates: %w", err)
	}
	out := make([]types.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, entryOf(r.Record))
	}
	assignRanks(out, 1)
	return out, nil
}

// Stats implements Store.Stats from the indexed columns only.
func (s *GormStore) Stats(ctx context.Context) (types.Stats, error) {
	var rows []candidateRow
	err := s.db.WithContext(ctx).Select("total", "tier", "current_company").Find(&rows).Error
	if err != nil {
		return types.Stats{}, fmt.Errorf("candidate stats: %w", err)
	}
	acc := newStatsAccumulator()
	for _, r := range rows {
		tier, err := model.ParseTier(r.Tier)
		if err != nil {
			continue
		}
		acc.add(r.Total, tier, r.CurrentCompany)
	}
	return acc.stats(), nil
}

// Count implements Store.Count. Failures count as zero.
func (s *GormStore) Count(ctx context.Context) int {
	var n int64
	if err := s.db.WithContext(ctx).Model(&candidateRow{}).Count(&n).Error; err != nil {
		return 0
	}
	return int(n)
}
