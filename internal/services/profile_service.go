package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TopRepositories is the number of repositories kept in each dashboard list.
const TopRepositories = 5

// ProfileFetcher fetches the raw data of a profile.
type ProfileFetcher interface {
	FetchUser(ctx context.Context, handle string) (*models.User, error)
	FetchRepos(ctx context.Context, handle string) ([]*models.Repository, error)
	FetchEvents(ctx context.Context, handle string) ([]models.Event, error)
}

// ProfileService loads profiles and assembles their dashboards.
type ProfileService struct {
	fetcher   ProfileFetcher
	languages *LanguageService
	activity  *ActivityService
	lookups   *LookupTracker
}

func NewProfileService(fetcher ProfileFetcher, languages *LanguageService, activity *ActivityService) *ProfileService {
	return &ProfileService{
		fetcher:   fetcher,
		languages: languages,
		activity:  activity,
		lookups:   NewLookupTracker(),
	}
}

// Load fetches the user, repositories and events of handle concurrently.
// The first failure cancels the other fetches and fails the lookup.
func (s *ProfileService) Load(ctx context.Context, handle string) (*models.Profile, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	profile := &models.Profile{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := s.fetcher.FetchUser(gctx, handle)
		if err != nil {
			return err
		}
		profile.User = user
		return nil
	})

	g.Go(func() error {
		repos, err := s.fetcher.FetchRepos(gctx, handle)
		if err != nil {
			return err
		}
		profile.Repos = repos
		return nil
	})

	g.Go(func() error {
		events, err := s.fetcher.FetchEvents(gctx, handle)
		if err != nil {
			return err
		}
		profile.Events = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

// BuildDashboard runs both aggregators over a loaded profile.
func (s *ProfileService) BuildDashboard(ctx context.Context, profile *models.Profile) (*models.Dashboard, error) {
	languages, err := s.languages.ProcessLanguageData(ctx, profile.Repos)
	if err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{
		User:            profile.User,
		TopRepositories: TopRepositoriesByStars(profile.Repos, TopRepositories),
		RecentlyUpdated: RecentlyUpdatedRepositories(profile.Repos, TopRepositories),
		Languages:       CollapseLanguages(languages, TopLanguages),
		Contributions:   s.activity.ProcessEventsToContributions(profile.Events),
	}
	for _, repo := range profile.Repos {
		dashboard.TotalStars += repo.Stars
	}

	return dashboard, nil
}

// Lookup loads and aggregates the profile of handle on behalf of a viewer.
// A newer lookup of another handle by the same viewer supersedes this one,
// which then fails with ErrLookupSuperseded. Lookups of the same handle run
// side by side. An empty viewerID is never superseded.
func (s *ProfileService) Lookup(ctx context.Context, viewerID, handle string) (*models.Dashboard, error) {
	lctx, done := s.lookups.Begin(ctx, viewerID, handle)
	defer done()

	dashboard, err := s.lookup(lctx, handle)
	if err != nil {
		if errors.Is(context.Cause(lctx), ErrLookupSuperseded) {
			logger.WithFields(logrus.Fields{
				"viewer": viewerID,
				"handle": handle,
			}).Info("Lookup superseded")
			return nil, ErrLookupSuperseded
		}
		return nil, err
	}

	return dashboard, nil
}

func (s *ProfileService) lookup(ctx context.Context, handle string) (*models.Dashboard, error) {
	profile, err := s.Load(ctx, handle)
	if err != nil {
		return nil, err
	}

	dashboard, err := s.BuildDashboard(ctx, profile)
	if err != nil {
		return nil, err
	}

	// Aggregation absorbs per-repository failures, so a cancellation that
	// arrives late is only visible on the context.
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// TopRepositoriesByStars returns up to n non-fork repositories with the most stars.
func TopRepositoriesByStars(repos []*models.Repository, n int) []*models.Repository {
	top := make([]*models.Repository, 0, len(repos))
	for _, repo := range repos {
		if !repo.Fork {
			top = append(top, repo)
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Stars > top[j].Stars
	})

	if len(top) > n {
		top = top[:n]
	}
	return top
}

// RecentlyUpdatedRepositories returns up to n repositories, most recently updated first.
func RecentlyUpdatedRepositories(repos []*models.Repository, n int) []*models.Repository {
	recent := make([]*models.Repository, len(repos))
	copy(recent, repos)

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].GithubUpdatedAt.After(recent[j].GithubUpdatedAt)
	})

	if len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

// LookupTracker tracks the in-flight lookups of each viewer. Lookups of
// the same handle share a viewer's slot; a lookup of another handle
// cancels them all.
type LookupTracker struct {
	mu       sync.Mutex
	inflight map[string]*viewerLookups
}

type viewerLookups struct {
	handle  string
	cancels map[*inflightLookup]struct{}
}

type inflightLookup struct {
	cancel context.CancelCauseFunc
}

func NewLookupTracker() *LookupTracker {
	return &LookupTracker{
		inflight: make(map[string]*viewerLookups),
	}
}

// Begin starts a lookup of handle for viewerID. Running lookups of the
// viewer for a different handle are cancelled with ErrLookupSuperseded.
// The returned func must be called when the lookup finishes.
func (t *LookupTracker) Begin(ctx context.Context, viewerID, handle string) (context.Context, func()) {
	lctx, cancel := context.WithCancelCause(ctx)
	if viewerID == "" {
		return lctx, func() { cancel(nil) }
	}

	current := &inflightLookup{cancel: cancel}

	t.mu.Lock()
	slot, ok := t.inflight[viewerID]
	if ok && !strings.EqualFold(slot.handle, handle) {
		for previous := range slot.cancels {
			previous.cancel(ErrLookupSuperseded)
		}
		ok = false
	}
	if !ok {
		slot = &viewerLookups{handle: handle, cancels: make(map[*inflightLookup]struct{})}
		t.inflight[viewerID] = slot
	}
	slot.cancels[current] = struct{}{}
	t.mu.Unlock()

	return lctx, func() {
		t.mu.Lock()
		delete(slot.cancels, current)
		if len(slot.cancels) == 0 && t.inflight[viewerID] == slot {
			delete(t.inflight, viewerID)
		}
		t.mu.Unlock()
		cancel(nil)
	}
}

// InFlight returns the number of viewers with a running lookup.
func (t *LookupTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
