package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleWorker Role = "worker"
)

func ValidRole(r string) bool {
	return Role(r) == RoleOwner || Role(r) == RoleWorker
}

type User struct {
	ID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	Location     string `gorm:"type:varchar(255)" json:"location"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`
	Company      string `gorm:"type:varchar(120)" json:"company"`
	Skill        string `gorm:"type:varchar(120)" json:"skill"`
	ProfilePhoto string `gorm:"type:varchar(255)" json:"profile_photo"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
