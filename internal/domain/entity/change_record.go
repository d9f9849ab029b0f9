package entity

import "time"

// ChangeRecord es el registro de auditoría tipado que produce cada operación
// mutadora, listando solo los campos que esa operación define cambiar. El
// contrato de auditoría es parte de la interfaz de cada componente, no un
// diff por introspección.
type ChangeRecord struct {
	Entity    string // "stock_pool", "supply_batch", "allocation", "sales_order", "order_item"
	EntityID  string
	Field     string
	Old       string
	New       string
	At        time.Time
	Operation string // "intake", "allocate", "reverse", "adjust", "order_item_add", ...
}
