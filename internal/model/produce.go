package model

import "time"

// ProduceItem is a sellable listing belonging to exactly one farm.
// Prices are stored in integer cents.
//
// Fields:
//
//	ID         – primary key identifier.
//	FarmID     – owning farm.
//	Name       – listing name (e.g. "Cherokee Purple Tomato").
//	Category   – free-form category (vegetable, fruit, flower, herb...).
//	PriceCents – unit price in cents.
//	IsOrganic  – organically grown.
//	IsSeasonal – currently in season.
//	IsHeirloom – heirloom variety.
//	IsActive   – whether the listing is visible to buyers.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type ProduceItem struct {
	ID         uint64    // produce_items.id
	FarmID     uint64    // produce_items.farm_id
	Name       string    // produce_items.name
	Category   string    // produce_items.category
	PriceCents int64     // produce_items.price_cents
	IsOrganic  bool      // produce_items.is_organic
	IsSeasonal bool      // produce_items.is_seasonal
	IsHeirloom bool      // produce_items.is_heirloom
	IsActive   bool      // produce_items.is_active
	CreatedAt  time.Time // produce_items.created_at
	UpdatedAt  time.Time // produce_items.updated_at
}
