package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterIntakeRequest body para POST /api/ledger/intakes.
// Crea un lote de ingreso y acredita el pool de la categoría.
type RegisterIntakeRequest struct {
	Category   string          `json:"category"`
	Kind       string          `json:"kind"` // HUEVO | ALIMENTO
	Quantity   decimal.Decimal `json:"quantity"`
	IntakeDate *time.Time      `json:"intake_date,omitempty"` // por defecto: ahora
	Expiration *time.Time      `json:"expiration,omitempty"`  // solo alimento
	SourceRef  string          `json:"source_ref,omitempty"`  // registro de producción o compra
}

// DispatchRequest body para POST /api/ledger/dispatches.
// Despacha una cantidad contra la categoría, consumiendo lotes en orden FIFO.
type DispatchRequest struct {
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	Destination string          `json:"destination"`
	AsOfDate    *time.Time      `json:"as_of_date,omitempty"` // fecha del despacho; evalúa frescura
}

// AdjustRequest body para POST /api/ledger/pools/:category/adjust.
type AdjustRequest struct {
	Delta  decimal.Decimal `json:"delta"` // positivo o negativo
	Reason string          `json:"reason,omitempty"`
}

// AllocationResponse una salida creada por un despacho.
type AllocationResponse struct {
	ID           string          `json:"id"`
	BatchID      string          `json:"batch_id"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	Destination  string          `json:"destination"`
	DispatchDate time.Time       `json:"dispatch_date"`
	Stale        bool            `json:"stale"`
}

// PoolResponse estado de un pool de stock.
type PoolResponse struct {
	Category    string          `json:"category"`
	Kind        string          `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	Minimum     decimal.Decimal `json:"minimum"`
	AutoMinimum bool            `json:"auto_minimum"`
	Active      bool            `json:"active"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BatchResponse estado de un lote.
type BatchResponse struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Original   decimal.Decimal `json:"original"`
	Remaining  decimal.Decimal `json:"remaining"`
	IntakeDate time.Time       `json:"intake_date"`
	Expiration *time.Time      `json:"expiration,omitempty"`
	SourceRef  string          `json:"source_ref,omitempty"`
}
