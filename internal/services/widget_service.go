package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/alimgiray/gitprofile/internal/metrics"
	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// WidgetKind selects the card rendered by the widget service.
type WidgetKind string

const (
	WidgetProfile       WidgetKind = "profile"
	WidgetRepository    WidgetKind = "repository"
	WidgetLanguageStats WidgetKind = "language-stats"
)

// ErrUnknownWidgetKind is returned for an unsupported widget kind
var ErrUnknownWidgetKind = errors.New("unknown widget kind")

// ParseWidgetKind accepts the canonical kinds and their short aliases.
func ParseWidgetKind(s string) (WidgetKind, error) {
	switch strings.ToLower(s) {
	case "profile":
		return WidgetProfile, nil
	case "repository", "repo":
		return WidgetRepository, nil
	case "language-stats", "stats":
		return WidgetLanguageStats, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownWidgetKind, s)
	}
}

// WidgetOptions customize a rendered widget.
type WidgetOptions struct {
	Theme string // "light" or "dark"
	Color string // accent color, hex
	Repo  string // repository name for repository widgets
}

// WidgetSource provides the data the widgets are drawn from.
type WidgetSource interface {
	FetchUser(ctx context.Context, handle string) (*models.User, error)
	FetchRepos(ctx context.Context, handle string) ([]*models.Repository, error)
	FetchAvatar(ctx context.Context, avatarURL string) (image.Image, error)
}

// WidgetService renders 600x200 PNG summary cards.
type WidgetService struct {
	source    WidgetSource
	languages *LanguageService
}

func NewWidgetService(source WidgetSource, languages *LanguageService) *WidgetService {
	return &WidgetService{
		source:    source,
		languages: languages,
	}
}

// Render fetches the data for handle and returns the encoded PNG.
func (s *WidgetService) Render(ctx context.Context, kind WidgetKind, handle string, opts WidgetOptions) ([]byte, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}

	img, err := s.RenderImage(ctx, kind, handle, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode widget: %w", err)
	}

	metrics.WidgetsRenderedTotal.WithLabelValues(string(kind)).Inc()
	return buf.Bytes(), nil
}

// RenderImage draws the widget without encoding it.
func (s *WidgetService) RenderImage(ctx context.Context, kind WidgetKind, handle string, opts WidgetOptions) (image.Image, error) {
	switch kind {
	case WidgetProfile, WidgetRepository, WidgetLanguageStats:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, kind)
	}

	var (
		user  *models.User
		repos []*models.Repository
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.source.FetchUser(gctx, handle)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = s.source.FetchRepos(gctx, handle)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := newCanvas(newWidgetTheme(opts.Theme, opts.Color))

	switch kind {
	case WidgetProfile:
		drawProfileCard(c, user, s.avatar(ctx, user))
	case WidgetRepository:
		if repo := SelectRepository(repos, opts.Repo); repo != nil {
			drawRepositoryCard(c, repo)
		} else {
			drawRepositoryNotFound(c, opts.Repo, handle)
		}
	case WidgetLanguageStats:
		languages, err := s.languages.ProcessLanguageData(ctx, repos)
		if err != nil {
			return nil, err
		}
		drawLanguageCard(c, languages)
	}

	return c.img, nil
}

// avatar returns the user's avatar, or nil when it cannot be fetched.
func (s *WidgetService) avatar(ctx context.Context, user *models.User) image.Image {
	if user.AvatarURL == "" {
		return nil
	}

	img, err := s.source.FetchAvatar(ctx, user.AvatarURL)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"login": user.Login,
			"error": err.Error(),
		}).Warn("Falling back to avatar placeholder")
		return nil
	}
	return img
}

// SelectRepository returns the repository named name, compared case
// insensitively, or the first repository when name is empty.
func SelectRepository(repos []*models.Repository, name string) *models.Repository {
	if name == "" {
		if len(repos) == 0 {
			return nil
		}
		return repos[0]
	}

	for _, repo := range repos {
		if strings.EqualFold(repo.Name, name) {
			return repo
		}
	}
	return nil
}
