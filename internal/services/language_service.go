package services

import (
	"context"
	"sort"
	"sync"

	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLanguageColor is used for languages missing from LanguageColors
	DefaultLanguageColor = "#6e7681"

	// OtherLanguage is the name of the entry collapsed languages are folded into
	OtherLanguage = "Other"

	// TopLanguages is how many languages are kept before collapsing the rest
	TopLanguages = 9
)

// LanguageColors maps language names to their display colors.
var LanguageColors = map[string]string{
	"JavaScript": "#f1e05a",
	"TypeScript": "#3178c6",
	"Python":     "#3572A5",
	"Java":       "#b07219",
	"Go":         "#00ADD8",
	"Ruby":       "#701516",
	"PHP":        "#4F5D95",
	"CSS":        "#563d7c",
	"HTML":       "#e34c26",
	"C++":        "#f34b7d",
	"C":          "#555555",
	"C#":         "#178600",
	"Swift":      "#ffac45",
	"Kotlin":     "#A97BFF",
	"Rust":       "#dea584",
	"Dart":       "#00B4AB",
	"Shell":      "#89e051",
	"Vue":        "#41b883",
	"Jupyter":    "#DA5B0B",
	"Dockerfile": "#384d54",
	"Makefile":   "#427819",
}

// LanguageFetcher fetches the language breakdown of a repository.
type LanguageFetcher interface {
	FetchRepoLanguages(ctx context.Context, fullName string) (map[string]int64, error)
}

// LanguageService builds byte-weighted language distributions.
type LanguageService struct {
	fetcher     LanguageFetcher
	concurrency int
}

func NewLanguageService(fetcher LanguageFetcher, concurrency int) *LanguageService {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &LanguageService{
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// ProcessLanguageData fetches the language breakdown of every repository
// with a primary language and aggregates the byte counts. Repositories
// whose breakdown cannot be fetched contribute nothing. Fetched breakdowns
// are stored on the repositories.
func (s *LanguageService) ProcessLanguageData(ctx context.Context, repos []*models.Repository) ([]models.LanguageEntry, error) {
	var (
		mu         sync.Mutex
		breakdowns = make([]map[string]int64, 0, len(repos))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, repo := range repos {
		if repo == nil || repo.PrimaryLanguage() == "" {
			continue
		}
		repo := repo

		g.Go(func() error {
			languages, err := s.fetcher.FetchRepoLanguages(gctx, repo.FullName)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"repository": repo.FullName,
					"error":      err.Error(),
				}).Warn("Skipping repository language breakdown")
				return nil
			}

			mu.Lock()
			repo.Languages = languages
			breakdowns = append(breakdowns, languages)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return AggregateLanguages(breakdowns), nil
}

// AggregateLanguages sums byte counts per language and returns entries
// ranked by value, largest first.
func AggregateLanguages(breakdowns []map[string]int64) []models.LanguageEntry {
	totals := make(map[string]int64)
	var total int64
	for _, breakdown := range breakdowns {
		for name, bytes := range breakdown {
			if bytes <= 0 {
				continue
			}
			totals[name] += bytes
			total += bytes
		}
	}

	entries := make([]models.LanguageEntry, 0, len(totals))
	if total == 0 {
		return entries
	}

	for name, value := range totals {
		entries = append(entries, models.LanguageEntry{
			Name:       name,
			Value:      value,
			Color:      LanguageColor(name),
			Percentage: float64(value) / float64(total) * 100,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})

	return entries
}

// CollapseLanguages keeps the first top entries and folds the rest into a
// single "Other" entry.
func CollapseLanguages(entries []models.LanguageEntry, top int) []models.LanguageEntry {
	if top <= 0 || len(entries) <= top {
		return entries
	}

	collapsed := make([]models.LanguageEntry, 0, top+1)
	collapsed = append(collapsed, entries[:top]...)

	other := models.LanguageEntry{Name: OtherLanguage, Color: DefaultLanguageColor}
	for _, entry := range entries[top:] {
		other.Value += entry.Value
		other.Percentage += entry.Percentage
	}

	return append(collapsed, other)
}

// LanguageColor returns the display color of a language.
func LanguageColor(name string) string {
	if color, ok := LanguageColors[name]; ok {
		return color
	}
	return DefaultLanguageColor
}
