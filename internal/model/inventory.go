package model

import "time"

// Inventory tracks stock for a produce item (1:1 with produce_items).
// Order placement atomically decrements QuantityAvailable and increments
// QuantityReserved; a farmer-driven restock overwrites both directly.
type Inventory struct {
	ID                uint64    // inventory.id
	ProduceItemID     uint64    // inventory.produce_item_id
	QuantityAvailable int64     // inventory.quantity_available
	QuantityReserved  int64     // inventory.quantity_reserved
	UpdatedAt         time.Time // inventory.updated_at
}
