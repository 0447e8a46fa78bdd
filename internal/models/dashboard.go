package models

// Profile is the raw data fetched for one account handle.
type Profile struct {
	User   *User         `json:"user"`
	Repos  []*Repository `json:"repos"`
	Events []Event       `json:"events"`
}

// Dashboard is the view model rendered for a profile.
type Dashboard struct {
	User            *User                `json:"user"`
	TotalStars      int                  `json:"totalStars"`
	TopRepositories []*Repository        `json:"topRepositories"`
	RecentlyUpdated []*Repository        `json:"recentlyUpdated"`
	Languages       []LanguageEntry      `json:"languages"`
	Contributions   ContributionCalendar `json:"contributions"`
}
