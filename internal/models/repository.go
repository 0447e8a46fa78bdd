package models

import "time"

// Repository is a GitHub repository owned by the visualized account.
type Repository struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	FullName        string           `json:"full_name"`
	HTMLURL         string           `json:"html_url"`
	Description     *string          `json:"description"`
	Stars           int              `json:"stargazers_count"`
	Forks           int              `json:"forks_count"`
	Language        *string          `json:"language"`
	Languages       map[string]int64 `json:"languages,omitempty"`
	Size            int              `json:"size"`
	Watchers        int              `json:"watchers_count"`
	OpenIssues      int              `json:"open_issues_count"`
	Topics          []string         `json:"topics"`
	Fork            bool             `json:"fork"`
	GithubCreatedAt time.Time        `json:"created_at"`
	GithubUpdatedAt time.Time        `json:"updated_at"`
}

// PrimaryLanguage returns the repository language or an empty string.
func (r *Repository) PrimaryLanguage() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}
