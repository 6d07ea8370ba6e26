package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents a registered community member.
// Ownership of the full profile lives with the user-management subsystem;
// the chat core only reads identity and display fields from it.
type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	Password       string `gorm:"not null" json:"-"`
	FullName       string `gorm:"not null" json:"fullName"`
	Phone          string `json:"phone,omitempty"`
	Region         string `json:"region,omitempty"`
	City           string `json:"city,omitempty"`
	ProfilePicture string `gorm:"default:default-profile.jpg" json:"profilePicture"`

	// Community categories.
	IsEvacuee      bool `json:"isEvacuee"`
	IsReservist    bool `json:"isReservist"`
	IsGroupManager bool `json:"isGroupManager"`

	// FriendIDs holds accepted friend user ids.
	FriendIDs pq.StringArray `gorm:"type:text[]" json:"friendIds,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// UserSummary is the profile slice embedded in conversations and messages.
type UserSummary struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

// BeforeCreate generates a UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Summary returns the fields other users are allowed to see.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
	}
}
