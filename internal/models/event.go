package models

import "time"

// Event types recognized by the activity aggregation.
const (
	EventTypePush              = "PushEvent"
	EventTypePullRequest       = "PullRequestEvent"
	EventTypeIssues            = "IssuesEvent"
	EventTypePullRequestReview = "PullRequestReviewEvent"
)

// ActionOpened is the payload action counted for pull request and issue events.
const ActionOpened = "opened"

// Event is a single entry of a user's public event stream.
type Event struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	RepoName  string       `json:"repo"`
	Payload   EventPayload `json:"payload"`
}

// Date returns the calendar date of the event timestamp in its own offset.
func (e Event) Date() string {
	return e.CreatedAt.Format(DateLayout)
}

// EventPayload is implemented by the payload variants below. Only the
// fields the aggregation needs are kept.
type EventPayload interface {
	eventPayload()
}

type PushPayload struct {
	Commits int `json:"commits"`
}

type PullRequestPayload struct {
	Action string `json:"action"`
}

type IssuesPayload struct {
	Action string `json:"action"`
}

type ReviewPayload struct{}

// IgnoredPayload marks an event type that does not count as a contribution.
type IgnoredPayload struct {
	Type string `json:"type"`
}

func (PushPayload) eventPayload()        {}
func (PullRequestPayload) eventPayload() {}
func (IssuesPayload) eventPayload()      {}
func (ReviewPayload) eventPayload()      {}
func (IgnoredPayload) eventPayload()     {}
