// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// DefaultAboutMe is the bio assigned to newly registered users.
const DefaultAboutMe = "About me has not been written yet."

// User represents an account in the Inkwell application.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Image     string    `gorm:"size:500" json:"image"`
	AboutMe   string    `gorm:"type:text" json:"about_me"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`
}

// DefaultAvatarURL derives the generated avatar for a username.
func DefaultAvatarURL(username string) string {
	return "https://ui-avatars.com/api/?name=" + strings.ReplaceAll(username, " ", "+") + "&background=random"
}

// AuthorSummary is the nested author view embedded in posts and comments.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image"`
	Email    string `json:"email"`
}

// Summary returns the author view of u.
func (u User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Username: u.Username,
		Image:    u.Image,
		Email:    u.Email,
	}
}

// Profile is the cached profile snapshot served for a user.
type Profile struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Image          string    `json:"image"`
	AboutMe        string    `json:"about_me"`
	DateJoined     time.Time `json:"date_joined"`
	FollowersCount int64     `json:"followers_count"`
	Followers      []string  `json:"followers"`
}

// PublicProfile is a Profile plus the per-viewer follow flag, which is never cached.
type PublicProfile struct {
	Profile
	IsFollowing bool `json:"is_following"`
}
