package models

import "time"

// User represents a registered account. One row in the info table.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	Birthdate     time.Time `json:"birthdate"`
	Address       string    `json:"address"`
	ImageFilename string    `json:"image_filename,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DefaultImage is the filename served when a user has no uploaded photo.
const DefaultImage = "default.png"

// Age returns the user's age in whole years as of the given date.
func (u *User) Age(today time.Time) int {
	age := today.Year() - u.Birthdate.Year()
	if today.Month() < u.Birthdate.Month() ||
		(today.Month() == u.Birthdate.Month() && today.Day() < u.Birthdate.Day()) {
		age--
	}
	return age
}

// ImageURL returns the static path of the user's photo, falling back to
// the default image when none was uploaded.
func (u *User) ImageURL() string {
	if u.ImageFilename != "" {
		return "/static/uploads/" + u.ImageFilename
	}
	return "/static/uploads/" + DefaultImage
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
