package model

import (
	"time"
)

type Match struct {
	RoomID        string     `gorm:"size:64;primaryKey"`
	InitiatorID   string     `gorm:"size:64;index;not null"`
	ResponderID   string     `gorm:"size:64;index;not null"`
	InitiatorUser *string    `gorm:"size:255;index"`
	ResponderUser *string    `gorm:"size:255;index"`
	Mode          string     `gorm:"size:32;not null"`
	CreatedAt     time.Time  `gorm:"not null;index"`
	EndedAt       *time.Time `gorm:"index"`
	EndReason     string     `gorm:"size:32"`
}
