package models

import "time"

type Team struct {
	ID             string    `gorm:"primarykey;size:30" json:"id"`
	Name           string    `gorm:"size:100;unique;not null" json:"name"`
	IsDisqualified bool      `gorm:"default:false" json:"isDisqualified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Members []Member `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

func (Team) TableName() string {
	return "team"
}

// Member is a contestant account. Auth fields live with the platform's
// account service; this service only reads identity and team membership.
type Member struct {
	ID             string    `gorm:"primarykey;size:30" json:"id"`
	Name           *string   `gorm:"size:100" json:"name"`
	Email          string    `gorm:"size:255;unique;not null" json:"email"`
	TeamID         *string   `gorm:"size:30;index" json:"teamId"`
	IsDisqualified bool      `gorm:"default:false" json:"isDisqualified"`
	Role           string    `gorm:"size:20;default:'CONTESTANT'" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Member) TableName() string {
	return "user"
}
