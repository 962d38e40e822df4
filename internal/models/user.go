package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is a developer account. Email is the identity used everywhere else.
type User struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Bio          string         `json:"bio"`
	TechStack    pq.StringArray `gorm:"type:text[]" json:"techStack"`
	Interests    pq.StringArray `gorm:"type:text[]" json:"interests"`
	Availability string         `json:"availability"`

	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate generates a UUID if ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Skills returns the lower-cased union of TechStack and Interests.
func (u *User) Skills() map[string]struct{} {
	skills := make(map[string]struct{}, len(u.TechStack)+len(u.Interests))
	for _, list := range [][]string{u.TechStack, u.Interests} {
		for _, s := range list {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				skills[s] = struct{}{}
			}
		}
	}
	return skills
}
