package instrument

import (
	"context"

	"gorm.io/gorm"

	"main/internal/model"
)

// Row mirrors the instrument master table seeded from the venue scrip dump.
type Row struct {
	Token          string `gorm:"column:token;primaryKey"`
	Symbol         string `gorm:"column:symbol;index:idx_symbol_exch"`
	Name           string `gorm:"column:name"`
	ExchSeg        string `gorm:"column:exch_seg;index:idx_symbol_exch"`
	LotSize        int64  `gorm:"column:lotsize"`
	TickSizePaise  int64  `gorm:"column:tick_size"`
	InstrumentType string `gorm:"column:instrumenttype"`
}

func (Row) TableName() string {
	return "instruments"
}

// Meta is the resolved metadata consumed by the risk and routing paths.
type Meta struct {
	Token    string
	Symbol   string
	ExchSeg  string
	LotSize  model.Quantity
	TickSize model.Price
}

// Repository reads instrument metadata from PostgreSQL.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Lookup fetches one instrument by symbol and exchange segment.
// gorm.ErrRecordNotFound is returned untouched so callers can treat
// absence as a soft condition.
func (r *Repository) Lookup(ctx context.Context, symbol, exchSeg string) (Meta, error) {
	var row Row
	if err := r.db.WithContext(ctx).
		Where("symbol = ? AND exch_seg = ?", symbol, exchSeg).
		First(&row).Error; err != nil {
		return Meta{}, err
	}
	return metaFromRow(row), nil
}

func metaFromRow(row Row) Meta {
	return Meta{
		Token:    row.Token,
		Symbol:   row.Symbol,
		ExchSeg:  row.ExchSeg,
		LotSize:  model.Quantity(row.LotSize),
		TickSize: model.Price(row.TickSizePaise),
	}
}
