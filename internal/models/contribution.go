package models

// DateLayout is the ISO date format used as the contribution day key.
const DateLayout = "2006-01-02"

// CalendarDays is the length of the trailing contribution window.
const CalendarDays = 365

type ContributionDetails struct {
	Commits      int `json:"commits"`
	PullRequests int `json:"pullRequests"`
	Issues       int `json:"issues"`
	Reviews      int `json:"reviews"`
}

// ContributionDay is the aggregated activity of one calendar date.
type ContributionDay struct {
	Date    string              `json:"date"`
	Count   int                 `json:"count"`
	Level   int                 `json:"level"`
	Details ContributionDetails `json:"details"`
}

type MonthlyContributions struct {
	Month         string `json:"month"`
	Contributions int    `json:"contributions"`
}

// ActivitySummary is derived from a full contribution calendar.
type ActivitySummary struct {
	TotalContributions   int                    `json:"totalContributions"`
	LongestStreak        int                    `json:"longestStreak"`
	CurrentStreak        int                    `json:"currentStreak"`
	ContributionsByMonth []MonthlyContributions `json:"contributionsByMonth"`
}

// ContributionCalendar holds one ContributionDay per date of the window,
// oldest first, together with its summary.
type ContributionCalendar struct {
	Days    []ContributionDay `json:"contributionDays"`
	Summary ActivitySummary   `json:"activitySummary"`

	index map[string]int
}

// NewContributionCalendar builds a calendar over the given days, which
// must already be in chronological order.
func NewContributionCalendar(days []ContributionDay, summary ActivitySummary) ContributionCalendar {
	index := make(map[string]int, len(days))
	for i, d := range days {
		index[d.Date] = i
	}
	return ContributionCalendar{Days: days, Summary: summary, index: index}
}

// Day returns the contribution day for an ISO date.
func (c ContributionCalendar) Day(date string) (ContributionDay, bool) {
	i, ok := c.index[date]
	if !ok {
		return ContributionDay{}, false
	}
	return c.Days[i], true
}
