package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleClient  = "client"
	RoleAdvisor = "advisor"
)

// Weekdays are the keys accepted in a weekly availability map.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Availability maps a weekday to its bookable HH:mm start times.
type Availability map[string][]string

type Profile struct {
	Avatar      string                      `gorm:"size:512"                 json:"avatar"`
	Bio         string                      `gorm:"type:text"                json:"bio"`
	Specialties datatypes.JSONSlice[string] `gorm:"type:text"                json:"specialties"`
	HourlyRate  float64                     `gorm:"not null;default:0"       json:"hourlyRate"`
	Rating      float64                     `gorm:"not null;default:0"       json:"rating"`
	ReviewCount int                         `gorm:"not null;default:0"       json:"reviewCount"`
}

type User struct {
	ID           uuid.UUID                        `gorm:"type:char(36);primaryKey"        json:"id"`
	Email        string                           `gorm:"size:255;uniqueIndex;not null"   json:"email"`
	PasswordHash string                           `gorm:"not null"                        json:"-"`
	Role         string                           `gorm:"size:16;index;not null"          json:"role"`
	FirstName    string                           `gorm:"size:100"                        json:"firstName"`
	LastName     string                           `gorm:"size:100"                        json:"lastName"`
	Profile      Profile                          `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
	Availability datatypes.JSONType[Availability] `json:"availability"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Profile.Specialties == nil {
		u.Profile.Specialties = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func ValidRole(role string) bool {
	return role == RoleClient || role == RoleAdvisor
}

// RevokedToken records a logged-out access token until it would have expired.
type RevokedToken struct {
	JTI       string    `gorm:"size:64;primaryKey"   json:"jti"`
	UserID    uuid.UUID `gorm:"type:char(36);index"  json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null"       json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
