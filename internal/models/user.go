package models

import "time"

// User is a GitHub account profile.
type User struct {
	Login           string    `json:"login"`
	Name            string    `json:"name"`
	AvatarURL       string    `json:"avatar_url"`
	HTMLURL         string    `json:"html_url"`
	Bio             string    `json:"bio"`
	PublicRepos     int       `json:"public_repos"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	CreatedAt       time.Time `json:"created_at"`
	Company         *string   `json:"company"`
	Location        *string   `json:"location"`
	Blog            *string   `json:"blog"`
	TwitterUsername *string   `json:"twitter_username"`
	Email           *string   `json:"email"`
}

// DisplayName returns the user's name, falling back to the login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
