// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash never leaves the server;
// use Profile for anything sent to clients.
type User struct {
	ID           string
	Email        string
	UserName     string
	PasswordHash string
	Bio          string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public projection of a User.
type Profile struct {
	ID       string
	Email    string
	UserName string
	Bio      string
	Image    string
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		UserName: u.UserName,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}

// PublicProfile is what other users may see of an account.
type PublicProfile struct {
	ID       string
	UserName string
	Bio      string
	Image    string
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{ID: u.ID, UserName: u.UserName, Bio: u.Bio, Image: u.Image}
}

// UserRef identifies a user inside an article's expanded relations.
type UserRef struct {
	ID       string
	UserName string
}
