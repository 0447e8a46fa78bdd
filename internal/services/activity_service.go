package services

import (
	"time"

	"github.com/alimgiray/gitprofile/internal/models"
)

// currentStreakTolerance is how far before now a day may start and still
// extend the current streak.
const currentStreakTolerance = 48 * time.Hour

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ActivityService turns a public event stream into a contribution calendar.
type ActivityService struct {
	now func() time.Time
}

func NewActivityService(now func() time.Time) *ActivityService {
	if now == nil {
		now = time.Now
	}
	return &ActivityService{now: now}
}

// ProcessEventsToContributions buckets events into the trailing 365-day
// window ending today and derives the activity summary. Events outside the
// window and unrecognized event types are ignored.
func (s *ActivityService) ProcessEventsToContributions(events []models.Event) models.ContributionCalendar {
	now := s.now()
	today := startOfDay(now)

	days := make([]models.ContributionDay, models.CalendarDays)
	index := make(map[string]int, models.CalendarDays)
	for i := range days {
		date := today.AddDate(0, 0, i-(models.CalendarDays-1)).Format(models.DateLayout)
		days[i] = models.ContributionDay{Date: date}
		index[date] = i
	}

	for _, event := range events {
		i, ok := index[event.Date()]
		if !ok {
			continue
		}
		applyEvent(&days[i], event.Payload)
	}

	for i := range days {
		days[i].Level = LevelForCount(days[i].Count)
	}

	return models.NewContributionCalendar(days, summarize(days, now))
}

// applyEvent adds the contribution of a single event to its day. Each
// payload kind feeds exactly one detail counter.
func applyEvent(day *models.ContributionDay, payload models.EventPayload) {
	switch p := payload.(type) {
	case models.PushPayload:
		day.Count += p.Commits
		day.Details.Commits += p.Commits
	case models.PullRequestPayload:
		if p.Action == models.ActionOpened {
			day.Count++
			day.Details.PullRequests++
		}
	case models.IssuesPayload:
		if p.Action == models.ActionOpened {
			day.Count++
			day.Details.Issues++
		}
	case models.ReviewPayload:
		day.Count++
		day.Details.Reviews++
	}
}

// LevelForCount maps a day's contribution count onto the 0-4 activity scale.
func LevelForCount(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 10:
		return 3
	default:
		return 4
	}
}

// summarize computes totals and streaks over days in chronological order.
func summarize(days []models.ContributionDay, now time.Time) models.ActivitySummary {
	var summary models.ActivitySummary
	var byMonth [12]int
	var seenMonth [12]bool

	streak := 0
	for _, day := range days {
		date, err := time.Parse(models.DateLayout, day.Date)
		if err != nil {
			continue
		}

		summary.TotalContributions += day.Count
		month := int(date.Month()) - 1
		byMonth[month] += day.Count
		seenMonth[month] = true

		if day.Count == 0 {
			streak = 0
			continue
		}

		streak++
		if streak > summary.LongestStreak {
			summary.LongestStreak = streak
		}
		if now.Sub(date) <= currentStreakTolerance {
			summary.CurrentStreak = streak
		}
	}

	summary.ContributionsByMonth = make([]models.MonthlyContributions, 0, len(monthLabels))
	for i, label := range monthLabels {
		if !seenMonth[i] {
			continue
		}
		summary.ContributionsByMonth = append(summary.ContributionsByMonth, models.MonthlyContributions{
			Month:         label,
			Contributions: byMonth[i],
		})
	}

	return summary
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
