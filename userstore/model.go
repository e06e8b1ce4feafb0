package userstore

import (
	"time"

	courseauth "github.com/progplatform/courseauth"
)

// userRow maps the platform's users table.
type userRow struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Username      string     `gorm:"column:username;size:50;uniqueIndex;not null"`
	Email         string     `gorm:"column:email;size:100;uniqueIndex;not null"`
	PasswordHash  string     `gorm:"column:password_hash;size:255;not null"`
	FullName      string     `gorm:"column:full_name;size:100"`
	AvatarURL     string     `gorm:"column:avatar_url;size:255"`
	Bio           string     `gorm:"column:bio;type:text"`
	Role          string     `gorm:"column:role;size:20;not null;default:learner"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toAccount() *courseauth.Account {
	return &courseauth.Account{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		FullName:      r.FullName,
		AvatarURL:     r.AvatarURL,
		Bio:           r.Bio,
		PasswordHash:  r.PasswordHash,
		Role:          courseauth.Role(r.Role),
		Active:        r.IsActive,
		EmailVerified: r.EmailVerified,
		LastLoginAt:   r.LastLoginAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromAccount(a *courseauth.Account) *userRow {
	return &userRow{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		PasswordHash:  a.PasswordHash,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		Bio:           a.Bio,
		Role:          string(a.Role),
		IsActive:      a.Active,
		EmailVerified: a.EmailVerified,
		LastLoginAt:   a.LastLoginAt,
	}
}
