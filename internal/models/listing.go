// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Listing represents a business entry in the directory.
//
// DeletedAt is a plain nullable timestamp rather than gorm.DeletedAt: the
// trash workflow queries, restores and batch-updates trashed rows, which
// GORM's auto-scoping soft delete would hide from every query.
type Listing struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:160;not null;index" json:"name"`
	Category    string `gorm:"size:80;not null;index" json:"category"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `json:"image_url"`

	// Contact handles. Email doubles as the ownership link to the
	// submitting user's account email.
	Whatsapp  string `gorm:"size:40" json:"whatsapp"`
	Instagram string `gorm:"size:80" json:"instagram"`
	Tiktok    string `gorm:"size:80" json:"tiktok"`
	Email     string `gorm:"size:254;index" json:"email"`
	Site      string `json:"site"`

	Approved  bool       `gorm:"not null;default:false;index" json:"approved"`
	Suspended bool       `gorm:"not null;default:false" json:"suspended"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Views int64 `gorm:"not null;default:0" json:"views"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Visible reports whether the listing may appear on public pages.
func (l *Listing) Visible() bool {
	return l.Approved && !l.Suspended && l.DeletedAt == nil
}

// Pending reports whether the listing awaits admin review.
func (l *Listing) Pending() bool {
	return !l.Approved && l.DeletedAt == nil
}

// Trashed reports whether the listing sits in the trash.
func (l *Listing) Trashed() bool {
	return l.DeletedAt != nil
}
