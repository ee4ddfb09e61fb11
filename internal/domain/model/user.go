package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string      `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;not null" json:"-"`
	Role         Role        `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	TokenVersion int         `gorm:"not null;default:0" json:"token_version"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	Profile      UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile"`
	LastLoginAt  *time.Time  `json:"last_login_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// プロフィール（1ユーザー1件）
type UserProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"-"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
