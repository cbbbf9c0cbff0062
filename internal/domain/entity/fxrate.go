package entity

import "time"

// FxRate is one (base, quote) conversion rate row, upserted out-of-band.
type FxRate struct {
	ID            uint
	BaseCurrency  string
	QuoteCurrency string
	Rate          float64
	AsOf          time.Time
	Source        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
