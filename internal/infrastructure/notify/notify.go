// Package notify implementa los colaboradores de alertas y auditoría sobre el
// logger estructurado. Las alertas del núcleo no se persisten aquí: se publican
// como líneas de log con campos tipados, que los sistemas de monitoreo recogen.
package notify

import (
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/event"
	"github.com/granjapro/avicola-api/pkg/logger"
)

// LogNotifier emite avisos de stock bajo y frescura al log estructurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador de alertas sobre el logger.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// LowStock publica el aviso de pool bajo mínimo.
func (n *LogNotifier) LowStock(e event.LowStock) {
	n.log.Warn().
		Str("alerta", "stock_bajo").
		Str("categoria", e.Category).
		Str("cantidad", e.Quantity.String()).
		Str("minimo", e.Minimum.String()).
		Time("en", e.At).
		Msg("pool por debajo del mínimo")
}

// Freshness publica el aviso de frescura de un lote consumido.
func (n *LogNotifier) Freshness(e event.Freshness) {
	n.log.Warn().
		Str("alerta", "frescura").
		Str("lote_id", e.BatchID).
		Str("categoria", e.Category).
		Int("edad_dias", e.AgeDays).
		Time("en", e.At).
		Msg("salida consumió lote fuera de la ventana de frescura")
}

// LogAuditSink escribe los registros de cambio tipados como líneas de auditoría.
type LogAuditSink struct {
	log *logger.Logger
}

// NewLogAuditSink construye el sumidero de auditoría sobre el logger.
func NewLogAuditSink(log *logger.Logger) *LogAuditSink {
	return &LogAuditSink{log: log}
}

// Record escribe cada cambio con sus campos. Se invoca tras confirmar la
// transacción que los produjo.
func (s *LogAuditSink) Record(changes []entity.ChangeRecord) {
	for _, c := range changes {
		s.log.Info().
			Str("auditoria", c.Operation).
			Str("entidad", c.Entity).
			Str("entidad_id", c.EntityID).
			Str("campo", c.Field).
			Str("antes", c.Old).
			Str("despues", c.New).
			Time("en", c.At).
			Msg("cambio registrado")
	}
}
