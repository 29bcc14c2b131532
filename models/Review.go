package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is a guest's rating of a completed stay. The unique index on
// BookingID enforces one review per booking at the store level.
type Review struct {
	gorm.Model
	BookingID  uint `json:"bookingID" gorm:"uniqueIndex"`
	PropertyID uint `json:"propertyID" gorm:"index"`
	GuestID    uint `json:"guestID" gorm:"index"`
	HostID     uint `json:"hostID" gorm:"index"`

	RatingOverall       int `json:"ratingOverall"`
	RatingCleanliness   int `json:"ratingCleanliness"`
	RatingAccuracy      int `json:"ratingAccuracy"`
	RatingCheckIn       int `json:"ratingCheckIn"`
	RatingCommunication int `json:"ratingCommunication"`
	RatingLocation      int `json:"ratingLocation"`
	RatingValue         int `json:"ratingValue"`

	Comment  string `json:"comment" gorm:"type:text"`
	IsPublic *bool  `json:"isPublic" gorm:"default:true"`

	ResponseMessage string     `json:"responseMessage,omitempty" gorm:"type:text"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`

	Guest    *User     `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}
