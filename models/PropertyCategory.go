package models

import "gorm.io/gorm"

type PropertyCategory struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex"`
	Emoji       string `json:"emoji" gorm:"type:varchar(10)"`
	Description string `json:"description"`
	Icon        string `json:"icon" gorm:"default:home"`
	Color       string `json:"color" gorm:"type:varchar(7);default:'#6B7280'"`
	IsActive    *bool  `json:"isActive" gorm:"default:true"`
	SortOrder   int    `json:"sortOrder" gorm:"default:0"`

	Properties []Property `json:"-" gorm:"foreignKey:CategoryID"`
}
