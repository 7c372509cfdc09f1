package model

import "time"

// Farm represents a grower's farm.  One owner may run several farms;
// each farm owns its produce listings.  This struct corresponds to a
// row in the `farms` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	OwnerID     – user ID of the farm owner (FARMER role).
//	Name        – display name of the farm.
//	AddressLine – street address (nullable).
//	City        – city (nullable).
//	Region      – state or region (nullable).
//	IsOrganic   – whether the farm is certified organic.
//	IsActive    – whether the farm is visible to buyers.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Farm struct {
	ID          uint64    // farms.id
	OwnerID     uint64    // farms.owner_id
	Name        string    // farms.name
	AddressLine *string   // farms.address_line (nullable)
	City        *string   // farms.city (nullable)
	Region      *string   // farms.region (nullable)
	IsOrganic   bool      // farms.is_organic
	IsActive    bool      // farms.is_active
	CreatedAt   time.Time // farms.created_at
	UpdatedAt   time.Time // farms.updated_at
}
