package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Failed-login lockout policy.
const (
	MaxLoginAttempts = 5
	LockoutDuration  = 2 * time.Hour
)

type User struct {
	gorm.Model
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email" gorm:"uniqueIndex"`
	Password     string     `json:"-"`
	Phone        string     `json:"phone"`
	DateOfBirth  *time.Time `json:"dateOfBirth"`
	Gender       string     `json:"gender" gorm:"type:varchar(20)"`
	ProfileImage string     `json:"profileImage"`

	IsVerified *bool `json:"isVerified" gorm:"default:false"`
	IsHost     *bool `json:"isHost" gorm:"default:false;index"`
	IsActive   *bool `json:"isActive" gorm:"default:true;index"`
	IsBlocked  *bool `json:"isBlocked" gorm:"default:false"`

	TotalBookings int     `json:"totalBookings"`
	TotalSpent    float64 `json:"totalSpent"`
	AverageRating float32 `json:"averageRating"`

	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP   string     `json:"-"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`

	Properties []Property `json:"properties,omitempty" gorm:"foreignKey:HostID"`
}

// PublicUser is the externally visible account view. It structurally cannot
// carry credential or lockout fields, so a handler serializing it cannot
// leak them.
type PublicUser struct {
	ID            uint       `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	ProfileImage  string     `json:"profileImage,omitempty"`
	IsVerified    *bool      `json:"isVerified"`
	IsHost        *bool      `json:"isHost"`
	IsActive      *bool      `json:"isActive"`
	IsBlocked     *bool      `json:"isBlocked"`
	TotalBookings int        `json:"totalBookings"`
	TotalSpent    float64    `json:"totalSpent"`
	AverageRating float32    `json:"averageRating"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Public returns the credential-free view of the account.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Phone:         u.Phone,
		DateOfBirth:   u.DateOfBirth,
		Gender:        u.Gender,
		ProfileImage:  u.ProfileImage,
		IsVerified:    u.IsVerified,
		IsHost:        u.IsHost,
		IsActive:      u.IsActive,
		IsBlocked:     u.IsBlocked,
		TotalBookings: u.TotalBookings,
		TotalSpent:    u.TotalSpent,
		AverageRating: u.AverageRating,
		CreatedAt:     u.CreatedAt,
	}
}

// PublicUsers maps a slice of accounts to their public views.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out
}

// FullName joins the name parts for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether a lockout is set and still in the future.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailedLogin applies the lockout rules in memory: an expired lock
// restarts the counter at 1 and clears the lock, otherwise the counter
// increments and the fifth failure sets a two-hour lock.
func (u *User) RegisterFailedLogin(now time.Time) {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return
	}
	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts && !u.IsLocked(now) {
		until := now.Add(LockoutDuration)
		u.LockUntil = &until
	}
}

// ResetLoginAttempts clears the counter and any lock after a successful
// login.
func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// RecordFailedLogin is the persisted form of RegisterFailedLogin. It runs as
// a single conditional UPDATE so concurrent attempts against the same
// account cannot lose increments to a read-modify-write race. The table name
// is always one of our own model tables, never user input.
func RecordFailedLogin(db *gorm.DB, table string, id uint, now time.Time) error {
	lockAt := now.Add(LockoutDuration)
	stmt := fmt.Sprintf(`UPDATE %s SET
		login_attempts = CASE
			WHEN lock_until IS NOT NULL AND lock_until < ? THEN 1
			ELSE login_attempts + 1 END,
		lock_until = CASE
			WHEN lock_until IS NOT NULL AND lock_until < ? THEN NULL
			WHEN login_attempts + 1 >= ? AND (lock_until IS NULL OR lock_until < ?) THEN ?
			ELSE lock_until END
		WHERE id = ?`, table)
	return db.Exec(stmt, now, now, MaxLoginAttempts, now, lockAt, id).Error
}
