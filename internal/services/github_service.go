package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alimgiray/gitprofile/internal/cache"
	"github.com/alimgiray/gitprofile/internal/metrics"
	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/alimgiray/gitprofile/pkg/config"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	reposPerPage   = 100
	eventsPerPage  = 100
	maxEventPages  = 3
	requestTimeout = 15 * time.Second
	acceptHeader   = "application/vnd.github+json"
	maxAvatarBytes = 2 << 20
)

// GitHubService fetches account data from the GitHub REST API. Every GET
// goes through the response cache, keyed by the full request URL.
type GitHubService struct {
	client       *github.Client
	avatarClient *http.Client
	cache        *cache.ResponseCache
}

// NewGitHubService creates a GitHub client authenticated with the configured token.
func NewGitHubService(cfg config.GitHubConfig, responseCache *cache.ResponseCache) (*GitHubService, error) {
	if cfg.Token == "" {
		return nil, config.ErrMissingGitHubToken
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = requestTimeout

	client := github.NewClient(tc)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.APIBaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.APIBaseURL, err)
		}
		client.BaseURL = baseURL
	}

	return &GitHubService{
		client:       client,
		avatarClient: &http.Client{Timeout: requestTimeout},
		cache:        responseCache,
	}, nil
}

// FetchUser fetches the profile of handle
func (s *GitHubService) FetchUser(ctx context.Context, handle string) (*models.User, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	var user github.User
	if err := s.get(ctx, fmt.Sprintf("users/%s", url.PathEscape(handle)), &user); err != nil {
		return nil, err
	}
	return userFromAPI(&user), nil
}

// FetchRepos fetches all repositories of handle, most recently updated
// first, paging until GitHub returns a short page.
func (s *GitHubService) FetchRepos(ctx context.Context, handle string) ([]*models.Repository, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	var allRepos []*models.Repository
	for page := 1; ; page++ {
		path := fmt.Sprintf("users/%s/repos?per_page=%d&sort=updated&page=%d", url.PathEscape(handle), reposPerPage, page)

		var repos []*github.Repository
		if err := s.get(ctx, path, &repos); err != nil {
			return nil, err
		}
		for _, repo := range repos {
			allRepos = append(allRepos, repositoryFromAPI(repo))
		}

		if len(repos) < reposPerPage {
			break
		}
	}

	return allRepos, nil
}

// FetchEvents fetches up to three pages of the public event stream of handle.
func (s *GitHubService) FetchEvents(ctx context.Context, handle string) ([]models.Event, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	var allEvents []models.Event
	for page := 1; page <= maxEventPages; page++ {
		path := fmt.Sprintf("users/%s/events?per_page=%d&page=%d", url.PathEscape(handle), eventsPerPage, page)

		var events []*github.Event
		if err := s.get(ctx, path, &events); err != nil {
			return nil, err
		}
		for _, event := range events {
			allEvents = append(allEvents, eventFromAPI(event))
		}

		if len(events) < eventsPerPage {
			break
		}
	}

	return allEvents, nil
}

// FetchRepoLanguages fetches the language to byte count breakdown of a
// repository given as "owner/name".
func (s *GitHubService) FetchRepoLanguages(ctx context.Context, fullName string) (map[string]int64, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository name %q", fullName)
	}

	languages := make(map[string]int64)
	path := fmt.Sprintf("repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(name))
	if err := s.get(ctx, path, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}

// FetchAvatar downloads and decodes an avatar image. Avatars are served
// from another host, so the request carries no credentials.
func (s *GitHubService) FetchAvatar(ctx context.Context, avatarURL string) (image.Image, error) {
	if avatarURL == "" {
		return nil, errors.New("avatar URL is empty")
	}

	body, found := s.cache.Get(avatarURL)
	if !found {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build avatar request: %w", err)
		}
		req.Header.Set("User-Agent", s.client.UserAgent)

		resp, err := s.avatarClient.Do(req)
		if err != nil {
			return nil, &TransportError{URL: avatarURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{URL: avatarURL, StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
		if err != nil {
			return nil, &TransportError{URL: avatarURL, Err: err}
		}
		s.cache.Set(avatarURL, body)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}
	return img, nil
}

// get issues a cached GET for path, relative to the API base URL, and
// decodes the body into v.
func (s *GitHubService) get(ctx context.Context, path string, v interface{}) error {
	req, err := s.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", acceptHeader)
	key := req.URL.String()

	if body, found := s.cache.Get(key); found {
		logger.Debugf("Serving %s from cache", key)
		return decodeBody(key, body, v)
	}

	var body json.RawMessage
	if _, err := s.client.Do(ctx, req, &body); err != nil {
		fetchErr := classifyFetchError(key, err)
		logger.WithFields(logrus.Fields{
			"url":   key,
			"error": fetchErr.Error(),
		}).Warn("GitHub API request failed")
		return fetchErr
	}

	s.cache.Set(key, body)
	return decodeBody(key, body, v)
}

func decodeBody(key string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", key, err)
	}
	return nil
}

// classifyFetchError maps go-github errors onto the service error types.
func classifyFetchError(key string, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr):
		metrics.FetchErrorsTotal.WithLabelValues("rate_limit").Inc()
		return &RateLimitError{URL: key, ResetAt: rateErr.Rate.Reset.Time}
	case errors.As(err, &abuseErr):
		metrics.FetchErrorsTotal.WithLabelValues("http").Inc()
		return &HTTPError{URL: key, StatusCode: statusOf(abuseErr.Response), Message: abuseErr.Message}
	case errors.As(err, &respErr):
		metrics.FetchErrorsTotal.WithLabelValues("http").Inc()
		return &HTTPError{URL: key, StatusCode: statusOf(respErr.Response), Message: respErr.Message}
	default:
		metrics.FetchErrorsTotal.WithLabelValues("transport").Inc()
		return &TransportError{URL: key, Err: err}
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func userFromAPI(u *github.User) *models.User {
	return &models.User{
		Login:           u.GetLogin(),
		Name:            u.GetName(),
		AvatarURL:       u.GetAvatarURL(),
		HTMLURL:         u.GetHTMLURL(),
		Bio:             u.GetBio(),
		PublicRepos:     u.GetPublicRepos(),
		Followers:       u.GetFollowers(),
		Following:       u.GetFollowing(),
		CreatedAt:       u.GetCreatedAt().Time,
		Company:         u.Company,
		Location:        u.Location,
		Blog:            u.Blog,
		TwitterUsername: u.TwitterUsername,
		Email:           u.Email,
	}
}

func repositoryFromAPI(repo *github.Repository) *models.Repository {
	return &models.Repository{
		ID:              repo.GetID(),
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		HTMLURL:         repo.GetHTMLURL(),
		Description:     repo.Description,
		Stars:           repo.GetStargazersCount(),
		Forks:           repo.GetForksCount(),
		Language:        repo.Language,
		Size:            repo.GetSize(),
		Watchers:        repo.GetWatchersCount(),
		OpenIssues:      repo.GetOpenIssuesCount(),
		Topics:          repo.Topics,
		Fork:            repo.GetFork(),
		GithubCreatedAt: repo.GetCreatedAt().Time,
		GithubUpdatedAt: repo.GetUpdatedAt().Time,
	}
}

func eventFromAPI(event *github.Event) models.Event {
	var raw []byte
	if event.RawPayload != nil {
		raw = *event.RawPayload
	}

	return models.Event{
		ID:        event.GetID(),
		Type:      event.GetType(),
		CreatedAt: event.GetCreatedAt().Time,
		RepoName:  event.GetRepo().GetName(),
		Payload:   payloadFromAPI(event.GetType(), raw),
	}
}

// payloadFromAPI decodes the parts of an event payload the aggregation
// uses. Missing or malformed fields decode to zero values.
func payloadFromAPI(eventType string, raw []byte) models.EventPayload {
	switch eventType {
	case models.EventTypePush:
		var push github.PushEvent
		_ = json.Unmarshal(raw, &push)
		return models.PushPayload{Commits: len(push.Commits)}
	case models.EventTypePullRequest:
		var pr github.PullRequestEvent
		_ = json.Unmarshal(raw, &pr)
		return models.PullRequestPayload{Action: pr.GetAction()}
	case models.EventTypeIssues:
		var issue github.IssuesEvent
		_ = json.Unmarshal(raw, &issue)
		return models.IssuesPayload{Action: issue.GetAction()}
	case models.EventTypePullRequestReview:
		return models.ReviewPayload{}
	default:
		return models.IgnoredPayload{Type: eventType}
	}
}
