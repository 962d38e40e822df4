package models

import "time"

const (
	DefaultLanguage = "javascript"
	DefaultCode     = "// Start coding..."
)

// CodeSession is the last saved snapshot of a pair-programming room.
type CodeSession struct {
	// Room is the client-agreed room id.
	Room     string `gorm:"primaryKey" json:"room"`
	Code     string `gorm:"type:text" json:"code"`
	Language string `gorm:"type:text;not null;default:javascript" json:"language"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
