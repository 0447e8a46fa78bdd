package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLanguageFetcher struct {
	mu        sync.Mutex
	languages map[string]map[string]int64
	failures  map[string]error
	calls     []string
}

func (f *stubLanguageFetcher) FetchRepoLanguages(_ context.Context, fullName string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fullName)

	if err, ok := f.failures[fullName]; ok {
		return nil, err
	}
	return f.languages[fullName], nil
}

func strPtr(s string) *string { return &s }

func repo(fullName string, language *string) *models.Repository {
	return &models.Repository{FullName: fullName, Name: fullName, Language: language}
}

func TestAggregateLanguages(t *testing.T) {
	entries := AggregateLanguages([]map[string]int64{
		{"Go": 600, "Shell": 100},
		{"Go": 200, "Elm": 100},
	})

	require.Len(t, entries, 3)
	assert.Equal(t, "Go", entries[0].Name)
	assert.Equal(t, int64(800), entries[0].Value)
	assert.InDelta(t, 80.0, entries[0].Percentage, 0.0001)
	assert.Equal(t, "#00ADD8", entries[0].Color)

	// Equal values are ordered by name.
	assert.Equal(t, "Elm", entries[1].Name)
	assert.Equal(t, DefaultLanguageColor, entries[1].Color)
	assert.Equal(t, "Shell", entries[2].Name)

	var total float64
	for _, e := range entries {
		total += e.Percentage
	}
	assert.InDelta(t, 100.0, total, 0.0001)
}

func TestAggregateLanguagesEmpty(t *testing.T) {
	assert.Empty(t, AggregateLanguages(nil))
	assert.Empty(t, AggregateLanguages([]map[string]int64{{}, {"Go": 0}}))
}

func TestCollapseLanguages(t *testing.T) {
	breakdown := make(map[string]int64)
	for i := 0; i < 12; i++ {
		breakdown[fmt.Sprintf("Lang%02d", i)] = int64(1200 - i*100)
	}
	entries := AggregateLanguages([]map[string]int64{breakdown})

	collapsed := CollapseLanguages(entries, TopLanguages)
	require.Len(t, collapsed, TopLanguages+1)

	other := collapsed[TopLanguages]
	assert.Equal(t, OtherLanguage, other.Name)
	assert.Equal(t, entries[9].Value+entries[10].Value+entries[11].Value, other.Value)
	assert.InDelta(t, entries[9].Percentage+entries[10].Percentage+entries[11].Percentage, other.Percentage, 0.0001)

	var total float64
	for _, e := range collapsed {
		total += e.Percentage
	}
	assert.InDelta(t, 100.0, total, 0.0001)

	assert.Len(t, CollapseLanguages(entries[:5], TopLanguages), 5)
}

func TestProcessLanguageData(t *testing.T) {
	t.Run("Byte weighted across repositories", func(t *testing.T) {
		fetcher := &stubLanguageFetcher{
			languages: map[string]map[string]int64{
				"octocat/api": {"Go": 3000, "Makefile": 100},
				"octocat/web": {"TypeScript": 1500, "CSS": 400},
			},
		}
		repos := []*models.Repository{
			repo("octocat/api", strPtr("Go")),
			repo("octocat/web", strPtr("TypeScript")),
		}

		entries, err := NewLanguageService(fetcher, 2).ProcessLanguageData(context.Background(), repos)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, "Go", entries[0].Name)
		assert.Equal(t, "TypeScript", entries[1].Name)
		assert.Equal(t, map[string]int64{"Go": 3000, "Makefile": 100}, repos[0].Languages)
	})

	t.Run("Failed fetch contributes nothing", func(t *testing.T) {
		fetcher := &stubLanguageFetcher{
			languages: map[string]map[string]int64{
				"octocat/api": {"Go": 1000},
			},
			failures: map[string]error{
				"octocat/broken": errors.New("boom"),
			},
		}
		repos := []*models.Repository{
			repo("octocat/api", strPtr("Go")),
			repo("octocat/broken", strPtr("Rust")),
		}

		entries, err := NewLanguageService(fetcher, 4).ProcessLanguageData(context.Background(), repos)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Go", entries[0].Name)
		assert.InDelta(t, 100.0, entries[0].Percentage, 0.0001)
	})

	t.Run("Repositories without a language are skipped", func(t *testing.T) {
		fetcher := &stubLanguageFetcher{}
		repos := []*models.Repository{
			repo("octocat/docs", nil),
			repo("octocat/notes", nil),
		}

		entries, err := NewLanguageService(fetcher, 4).ProcessLanguageData(context.Background(), repos)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, fetcher.calls)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLanguageService(&stubLanguageFetcher{}, 1).ProcessLanguageData(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
