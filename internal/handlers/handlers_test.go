package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alimgiray/gitprofile/internal/middleware"
	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeGitHub serves a single account and fails every other handle with err.
// With gate set, user fetches of the account wait until gate is closed.
type fakeGitHub struct {
	user    *models.User
	repos   []*models.Repository
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeGitHub) lookup(handle string) error {
	if f.err != nil {
		return f.err
	}
	if handle != f.user.Login {
		return &services.HTTPError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	}
	return nil
}

func (f *fakeGitHub) FetchUser(ctx context.Context, handle string) (*models.User, error) {
	if err := f.lookup(handle); err != nil {
		return nil, err
	}
	if f.gate != nil {
		f.started <- struct{}{}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.user, nil
}

func (f *fakeGitHub) FetchRepos(ctx context.Context, handle string) ([]*models.Repository, error) {
	if err := f.lookup(handle); err != nil {
		return nil, err
	}
	return f.repos, nil
}

func (f *fakeGitHub) FetchEvents(ctx context.Context, handle string) ([]models.Event, error) {
	if err := f.lookup(handle); err != nil {
		return nil, err
	}
	return []models.Event{{
		Type:      models.EventTypePush,
		CreatedAt: time.Now().UTC(),
		Payload:   models.PushPayload{Commits: 3},
	}}, nil
}

func (f *fakeGitHub) FetchRepoLanguages(ctx context.Context, fullName string) (map[string]int64, error) {
	return map[string]int64{"Go": 1000}, nil
}

func (f *fakeGitHub) FetchAvatar(ctx context.Context, avatarURL string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func newFakeGitHub() *fakeGitHub {
	goLang := "Go"
	return &fakeGitHub{
		user: &models.User{Login: "octocat", Name: "The Octocat", AvatarURL: "https://avatars.example.com/u/1"},
		repos: []*models.Repository{
			{Name: "hello", FullName: "octocat/hello", Stars: 42, Language: &goLang},
		},
	}
}

func newTestRouter(gh *fakeGitHub) *gin.Engine {
	gin.SetMode(gin.TestMode)

	languageService := services.NewLanguageService(gh, 2)
	profileService := services.NewProfileService(gh, languageService, services.NewActivityService(time.Now))
	widgetService := services.NewWidgetService(gh, languageService)

	profileHandler := NewProfileHandler(profileService, services.NewExportService())
	widgetHandler := NewWidgetHandler(widgetService)

	router := gin.New()
	router.Use(middleware.ViewerMiddleware("test-secret"))
	router.GET("/health", NewHealthHandler().HealthCheck)
	router.GET("/api/github/:username", profileHandler.Raw)
	router.GET("/api/profile/:username", profileHandler.Dashboard)
	router.GET("/api/profile/:username/export.xlsx", profileHandler.Export)
	router.GET("/api/widgets/:type", widgetHandler.Widget)
	router.NoRoute(NewNotFoundHandler().NotFound)
	return router
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func getAs(router *gin.Engine, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	w := get(newTestRouter(newFakeGitHub()), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeJSON(t, w)["status"])
}

func TestNotFound(t *testing.T) {
	w := get(newTestRouter(newFakeGitHub()), "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/nope", decodeJSON(t, w)["path"])
}

func TestProfileRaw(t *testing.T) {
	w := get(newTestRouter(newFakeGitHub()), "/api/github/octocat")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "octocat", body["user"].(map[string]interface{})["login"])
	assert.Len(t, body["repos"], 1)

	events := body["events"].([]interface{})
	require.Len(t, events, 1)
	payload := events[0].(map[string]interface{})["payload"].(map[string]interface{})
	assert.Equal(t, float64(3), payload["commits"])
}

func TestProfileDashboard(t *testing.T) {
	w := get(newTestRouter(newFakeGitHub()), "/api/profile/octocat")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, float64(42), body["totalStars"])

	languages := body["languages"].([]interface{})
	require.Len(t, languages, 1)
	assert.Equal(t, "Go", languages[0].(map[string]interface{})["name"])

	contributions := body["contributions"].(map[string]interface{})
	assert.Len(t, contributions["contributionDays"], models.CalendarDays)
	summary := contributions["activitySummary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["totalContributions"])
}

func TestProfileErrors(t *testing.T) {
	t.Run("Unknown account", func(t *testing.T) {
		w := get(newTestRouter(newFakeGitHub()), "/api/profile/ghost")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, decodeJSON(t, w)["error"], "404")
	})

	t.Run("Rate limited", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.err = &services.RateLimitError{}

		w := get(newTestRouter(gh), "/api/profile/octocat")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "rate_limited", decodeJSON(t, w)["code"])
	})

	t.Run("Unreachable upstream", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.err = &services.TransportError{Err: context.DeadlineExceeded}

		w := get(newTestRouter(gh), "/api/github/octocat")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestProfileExport(t *testing.T) {
	w := get(newTestRouter(newFakeGitHub()), "/api/profile/octocat/export.xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "octocat-github-profile.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), services.SheetContributions)
}

func TestConcurrentLookupsOfOneViewer(t *testing.T) {
	gh := newFakeGitHub()
	gh.gate = make(chan struct{})
	gh.started = make(chan struct{}, 4)
	router := newTestRouter(gh)

	cookies := get(router, "/health").Result().Cookies()
	require.NotEmpty(t, cookies)

	waitStarted := func() {
		t.Helper()
		select {
		case <-gh.started:
		case <-time.After(5 * time.Second):
			t.Fatal("lookup never reached the user fetch")
		}
	}

	t.Run("Export alongside the dashboard of the same account", func(t *testing.T) {
		dashboard := make(chan *httptest.ResponseRecorder, 1)
		go func() { dashboard <- getAs(router, "/api/profile/octocat", cookies) }()
		waitStarted()

		export := make(chan *httptest.ResponseRecorder, 1)
		go func() { export <- getAs(router, "/api/profile/octocat/export.xlsx", cookies) }()
		waitStarted()

		close(gh.gate)

		w := <-dashboard
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = <-export
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	})

	t.Run("Lookup of another account supersedes the running one", func(t *testing.T) {
		gh.gate = make(chan struct{})
		defer close(gh.gate)

		dashboard := make(chan *httptest.ResponseRecorder, 1)
		go func() { dashboard <- getAs(router, "/api/profile/octocat", cookies) }()
		waitStarted()

		w := getAs(router, "/api/profile/ghost", cookies)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = <-dashboard
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "superseded", decodeJSON(t, w)["code"])
	})
}

func TestWidget(t *testing.T) {
	router := newTestRouter(newFakeGitHub())

	for _, kind := range []string{"profile", "repo", "repository", "stats", "language-stats"} {
		t.Run(kind, func(t *testing.T) {
			w := get(router, "/api/widgets/"+kind+"?username=octocat&theme=dark&color=%23ff0000")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

			img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 600, 200), img.Bounds())
		})
	}
}

func TestWidgetErrors(t *testing.T) {
	router := newTestRouter(newFakeGitHub())

	t.Run("Missing username", func(t *testing.T) {
		w := get(router, "/api/widgets/profile")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Username is required", decodeJSON(t, w)["error"])
	})

	t.Run("Unknown type", func(t *testing.T) {
		w := get(router, "/api/widgets/banner?username=octocat")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid widget type: banner", decodeJSON(t, w)["error"])
	})

	t.Run("Unknown user", func(t *testing.T) {
		w := get(router, "/api/widgets/profile?username=ghost")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.err = &services.HTTPError{StatusCode: http.StatusInternalServerError}

		w := get(newTestRouter(gh), "/api/widgets/profile?username=octocat")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		body := decodeJSON(t, w)
		assert.Equal(t, "Failed to generate widget image", body["error"])
		assert.Equal(t, "GitHub API error: 500", body["details"])
	})
}
