package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property verification workflow states.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Cancellation policy tags. The refund tiers themselves live on Booking.
const (
	PolicyFlexible    = "flexible"
	PolicyModerate    = "moderate"
	PolicyStrict      = "strict"
	PolicySuperStrict = "super-strict"
)

type Property struct {
	gorm.Model
	HostID      uint   `json:"hostID" gorm:"index"`
	CategoryID  *uint  `json:"categoryID" gorm:"index"`
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`

	Address   string  `json:"address"`
	City      string  `json:"city" gorm:"index"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	ZipCode   string  `json:"zipCode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Fee schedule. Booking pricing snapshots these at creation time.
	BasePrice   float64 `json:"basePrice"`
	Currency    string  `json:"currency" gorm:"type:varchar(3);default:USD"`
	CleaningFee float64 `json:"cleaningFee"`
	ServiceFee  float64 `json:"serviceFee"`
	Taxes       float64 `json:"taxes"`

	MaxGuests int     `json:"maxGuests"`
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms float32 `json:"bathrooms"`
	Beds      int     `json:"beds"`

	Amenities datatypes.JSON `json:"amenities"` // amenity ids
	Images    datatypes.JSON `json:"images"`    // [{url, caption, isPrimary}]

	CheckInTime  string `json:"checkInTime" gorm:"type:varchar(10);default:'15:00'"`
	CheckOutTime string `json:"checkOutTime" gorm:"type:varchar(10);default:'11:00'"`
	MinimumStay  int    `json:"minimumStay" gorm:"default:1"`
	MaximumStay  int    `json:"maximumStay" gorm:"default:30"`
	// Host-blocked calendar ranges: [{startDate, endDate, reason}].
	BlockedDates datatypes.JSON `json:"blockedDates" gorm:"type:jsonb"`

	HouseRules     datatypes.JSON `json:"houseRules"`
	SmokingAllowed bool           `json:"smokingAllowed" gorm:"default:false"`
	PetsAllowed    bool           `json:"petsAllowed" gorm:"default:false"`
	PartiesAllowed bool           `json:"partiesAllowed" gorm:"default:false"`

	RatingOverall       float32 `json:"ratingOverall"`
	RatingCleanliness   float32 `json:"ratingCleanliness"`
	RatingAccuracy      float32 `json:"ratingAccuracy"`
	RatingCheckIn       float32 `json:"ratingCheckIn"`
	RatingCommunication float32 `json:"ratingCommunication"`
	RatingLocation      float32 `json:"ratingLocation"`
	RatingValue         float32 `json:"ratingValue"`
	ReviewCount         int     `json:"reviewCount"`

	TotalBookings int     `json:"totalBookings"`
	TotalRevenue  float64 `json:"totalRevenue"`
	ViewCount     int     `json:"viewCount"`

	IsActive           *bool  `json:"isActive" gorm:"default:true;index"`
	IsVerified         bool   `json:"isVerified" gorm:"default:false"`
	IsBlocked          bool   `json:"isBlocked" gorm:"default:false"`
	VerificationStatus string `json:"verificationStatus" gorm:"type:varchar(20);default:pending;index"`
	VerificationNotes  string `json:"verificationNotes,omitempty"`

	CancellationPolicy string `json:"cancellationPolicy" gorm:"type:varchar(20);default:moderate"`

	Host     *User             `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Category *PropertyCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Reviews  []Review          `json:"reviews,omitempty" gorm:"foreignKey:PropertyID"`
	Bookings []Booking         `json:"bookings,omitempty" gorm:"foreignKey:PropertyID"`
}

// BlockedRange is one host-blocked calendar interval.
type BlockedRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason,omitempty"`
}

// BlockedRanges decodes the jsonb calendar blocks.
func (p *Property) BlockedRanges() []BlockedRange {
	var ranges []BlockedRange
	if p.BlockedDates != nil {
		_ = json.Unmarshal(p.BlockedDates, &ranges)
	}
	return ranges
}

// MarshalJSON keeps the jsonb array fields as arrays (never null) on the
// wire and strips the host's relational baggage.
func (p *Property) MarshalJSON() ([]byte, error) {
	type Alias Property
	aux := &struct {
		Amenities  []uint                   `json:"amenities"`
		Images     []map[string]interface{} `json:"images"`
		HouseRules []string                 `json:"houseRules"`
		Host       *PublicUser              `json:"host,omitempty"`
		*Alias
	}{
		Amenities:  []uint{},
		Images:     []map[string]interface{}{},
		HouseRules: []string{},
		Alias:      (*Alias)(p),
	}

	if p.Amenities != nil {
		var ids []uint
		if err := json.Unmarshal(p.Amenities, &ids); err == nil && ids != nil {
			aux.Amenities = ids
		}
	}
	if p.Images != nil {
		var images []map[string]interface{}
		if err := json.Unmarshal(p.Images, &images); err == nil && images != nil {
			aux.Images = images
		}
	}
	if p.HouseRules != nil {
		var rules []string
		if err := json.Unmarshal(p.HouseRules, &rules); err == nil && rules != nil {
			aux.HouseRules = rules
		}
	}
	if p.Host != nil && p.Host.ID > 0 {
		view := p.Host.Public()
		aux.Host = &view
	}

	return json.Marshal(aux)
}
