package models

import "gorm.io/gorm"

type Amenity struct {
	gorm.Model
	Name     string `json:"name" gorm:"uniqueIndex"`
	Icon     string `json:"icon"`
	Category string `json:"category" gorm:"index"` // essentials, features, safety, location
	IsActive *bool  `json:"isActive" gorm:"default:true"`
}
