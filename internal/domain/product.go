package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string
	Name      string
	Unit      string
	Price     decimal.Decimal
	CreatedAt time.Time
}
