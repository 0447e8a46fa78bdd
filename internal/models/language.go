package models

// LanguageEntry is one language of a profile's language distribution.
type LanguageEntry struct {
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
}
