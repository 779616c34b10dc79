// models.go
// Defines the core data structures shared by the FarmTrace API:
// identities, produce batches, lifecycle statuses and alert records.

package models

import (
	"time"
)

// Role defines which persona a user acts as. A role is fixed for the
// lifetime of the identity and gates every write operation.
type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
)

// ValidRole reports whether r is one of the four known personas.
func ValidRole(r Role) bool {
	switch r {
	case RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer:
		return true
	}
	return false
}

// HomeRoute returns the role's landing view, used by clients after login.
func (r Role) HomeRoute() string {
	switch r {
	case RoleFarmer:
		return "/farmer/dashboard"
	case RoleDistributor:
		return "/distributor/dashboard"
	case RoleRetailer:
		return "/retailer/dashboard"
	default:
		return "/consumer/products"
	}
}

// BatchStatus is the lifecycle stage of a produce batch.
type BatchStatus string

const (
	StatusCreated             BatchStatus = "Created"
	StatusInTransit           BatchStatus = "In Transit"
	StatusAtWarehouse         BatchStatus = "At Warehouse"
	StatusDeliveredToRetailer BatchStatus = "Delivered to Retailer"
	StatusAccepted            BatchStatus = "Accepted"
	StatusDelayed             BatchStatus = "Delayed"
)

// transitions is the directed lifecycle graph. Accepted is terminal.
// Delayed is reachable from every non-terminal stage; leaving Delayed
// requires an explicit transition to a main-line stage.
var transitions = map[BatchStatus][]BatchStatus{
	StatusCreated:             {StatusInTransit, StatusDelayed},
	StatusInTransit:           {StatusAtWarehouse, StatusDelayed},
	StatusAtWarehouse:         {StatusDeliveredToRetailer, StatusDelayed},
	StatusDeliveredToRetailer: {StatusAccepted, StatusDelayed},
	StatusDelayed:             {StatusInTransit, StatusAtWarehouse, StatusDeliveredToRetailer, StatusAccepted},
	StatusAccepted:            {},
}

// ValidStatus reports whether s is a known lifecycle stage.
func ValidStatus(s BatchStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a batch may move from one stage to the
// next. A stage may always "transition" to itself; repeated identical
// updates converge on the same state.
func CanTransition(from, to BatchStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// User is an identity in the system. The role decides which endpoints
// and which batch lifecycle actions are available.
type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// AIAnalysis is the quality result attached to a batch image by the
// external classifier. Optional: a batch without one is still valid.
type AIAnalysis struct {
	IsFruitOrVegetable bool    `json:"is_fruit_or_vegetable"`
	Freshness          string  `json:"freshness"` // Very Fresh | Fresh | Average | Poor | Spoiled
	Confidence         float64 `json:"confidence"`
	Quality            string  `json:"quality"` // excellent | good | average | poor
	Damage             string  `json:"damage,omitempty"`
	Spoilage           string  `json:"spoilage,omitempty"`
}

// Batch is one harvested lot of produce tracked from farmer to retailer.
type Batch struct {
	ID          int64       `json:"id"`
	BatchCode   string      `json:"batch_code"`
	FarmerID    string      `json:"farmer_id"`
	CropName    string      `json:"crop_name"`
	Quantity    float64     `json:"quantity"`
	Unit        string      `json:"unit"`
	HarvestDate string      `json:"harvest_date"` // YYYY-MM-DD
	ImageURL    string      `json:"image_url"`
	Status      BatchStatus `json:"status"`
	AIAnalysis  *AIAnalysis `json:"ai_analysis,omitempty"`

	// Retailer-side fields, unset until a retailer accepts the batch.
	Price           *float64 `json:"price,omitempty"`
	DiscountPercent float64  `json:"discount_percent,omitempty"`
	Category        string   `json:"category,omitempty"`
	ArrivalDate     string   `json:"arrival_date,omitempty"`
	ShelfDate       string   `json:"shelf_date,omitempty"`
	ExpiryDate      string   `json:"expiry_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FinalPrice returns the effective consumer price after discount, or nil
// when no price has been set yet.
func (b *Batch) FinalPrice() *float64 {
	if b.Price == nil {
		return nil
	}
	final := *b.Price * (1 - b.DiscountPercent/100)
	return &final
}

// AlertType categorizes anomaly notifications.
type AlertType string

const (
	AlertPriceSpike         AlertType = "price_spike"
	AlertQuantityMismatch   AlertType = "quantity_mismatch"
	AlertDuplicateBatch     AlertType = "duplicate_batch"
	AlertSuspiciousActivity AlertType = "suspicious_activity"
)

// Alert is an anomaly notification addressed to a single user.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	BatchID   int64     `json:"batch_id,omitempty"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}
