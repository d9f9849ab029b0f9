package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// RecomputeMinimum calcula el umbral mínimo automático de un pool:
// factor × ingreso diario promedio sobre la ventana de historial dada.
// Es una función pura e idempotente del historial de lotes: solo cuenta la
// cantidad Original de los lotes ingresados dentro de la ventana.
func RecomputeMinimum(batches []*entity.SupplyBatch, windowDays int, factor decimal.Decimal, now time.Time) decimal.Decimal {
	if windowDays <= 0 || !factor.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	intake := decimal.Zero
	for _, b := range batches {
		if !b.IntakeDate.Before(cutoff) {
			intake = intake.Add(b.Original)
		}
	}
	daily := intake.Div(decimal.NewFromInt(int64(windowDays)))
	return daily.Mul(factor).Round(2)
}
