package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"socialsync/internal/auth"
	"socialsync/internal/config"
	"socialsync/internal/demo"
	"socialsync/internal/media"
	"socialsync/internal/services"
)

var oct15 = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	return startServer(t, cfg, false)
}

// newBackendServer seeds the demo workspace into a store that acts as the
// configured backend.
func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startServer(t, nil, true)
}

func startServer(t *testing.T, cfg *config.Config, backend bool) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := func() time.Time { return oct15 }
	ds, err := demo.NewStore(ctx, now, time.UTC)
	require.NoError(t, err)
	opts := services.Options{
		Demo:     ds,
		Media:    media.New(t.TempDir(), "/media"),
		Location: time.UTC,
		Now:      now,
	}
	if backend {
		preview, err := demo.NewStore(ctx, now, time.UTC)
		require.NoError(t, err)
		opts.Live, opts.Demo = ds, preview
	}
	svc := services.New(opts)

	bus := auth.NewBus(16)
	provider := auth.NewLocalProvider(ds, bus, time.Hour)
	provider.Cost = bcrypt.MinCost
	mgr := auth.NewManager(provider, ds, bus)
	mgr.Start(ctx)

	srv := httptest.NewServer(NewServer(Options{Config: cfg, Services: svc, Auth: mgr, Resets: provider}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type apiError struct {
	Error   string            `json:"error"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type event struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Status        string    `json:"status"`
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(b))

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "go_goroutines")
}

func TestBasicAuthGate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/health", "", nil).StatusCode)

	resp := do(t, http.MethodGet, srv.URL+"/api/analytics/best-times", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "SocialSync")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/analytics/best-times", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "s3cret")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestBoardIsTaggedDemo(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=month&date=2025-10-15", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Data struct {
			Board struct {
				Title string `json:"title"`
				Cells []struct {
					Date  time.Time `json:"date"`
					Total int       `json:"total"`
				} `json:"cells"`
			} `json:"board"`
		} `json:"data"`
		Meta struct {
			Source string `json:"source"`
		} `json:"meta"`
	}](t, resp)
	assert.Equal(t, "demo", body.Meta.Source)
	assert.Equal(t, "October 2025", body.Data.Board.Title)
	require.Len(t, body.Data.Board.Cells, 42)
	assert.Equal(t, "2025-09-28", body.Data.Board.Cells[0].Date.Format("2006-01-02"))

	resp = do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=month&date=2025-10-15&nav=next", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decode[struct {
		Data struct {
			View struct {
				Anchor time.Time `json:"anchor"`
			} `json:"view"`
		} `json:"data"`
	}](t, resp)
	assert.Equal(t, "2025-11-15", next.Data.View.Anchor.Format("2006-01-02"))

	resp = do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=year", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoardKeepsRememberedMonthDay(t *testing.T) {
	srv := newTestServer(t, nil)
	type viewBody struct {
		Data struct {
			View struct {
				Anchor time.Time `json:"anchor"`
				Day    int       `json:"day"`
			} `json:"view"`
		} `json:"data"`
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=month&date=2025-01-31&nav=next", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decode[viewBody](t, resp)
	assert.Equal(t, "2025-02-28", next.Data.View.Anchor.Format("2006-01-02"))
	assert.Equal(t, 31, next.Data.View.Day)

	resp = do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=month&date=2025-02-28&day=31&nav=prev", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	back := decode[viewBody](t, resp)
	assert.Equal(t, "2025-01-31", back.Data.View.Anchor.Format("2006-01-02"))

	resp = do(t, http.MethodGet, srv.URL+"/api/calendar/board?mode=month&date=2025-02-28&day=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/calendar?date=2025-01-31", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "date=2025-02-28&amp;day=31")
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/events", "", strings.NewReader(`{"caption":"Hi","date":"2025-10-21","time":"10:00","platforms":[]}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decode[apiError](t, resp)
	assert.Equal(t, 400, e.Code)
	assert.Contains(t, e.Fields, "platforms")

	resp = do(t, http.MethodPost, srv.URL+"/api/events", "", strings.NewReader(`{"caption":"Launch","date":"2025-10-21","time":"10:00","platforms":["instagram"]}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[struct{ Data event }](t, resp).Data
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "draft", created.Status)

	resp = do(t, http.MethodPost, srv.URL+"/api/events/"+created.ID+"/drop", "", strings.NewReader(`{"date":"2025-10-24"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[struct{ Data event }](t, resp).Data
	assert.True(t, time.Date(2025, 10, 24, 10, 0, 0, 0, time.UTC).Equal(moved.ScheduledDate))

	resp = do(t, http.MethodPost, srv.URL+"/api/events/"+created.ID+"/drop", "", strings.NewReader(`{"date":"2025-10-24","hour":30}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/events/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/events/"+created.ID, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", decode[apiError](t, resp).Error)
}

func TestValidateDraft(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := do(t, http.MethodPost, srv.URL+"/api/events/validate", "", strings.NewReader(`{"caption":"","date":"2025-10-21","time":"10:00","platforms":["twitter"]}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[struct{ Data validation }](t, resp).Data
	assert.False(t, v.Valid)
	assert.Contains(t, v.Errors, "caption")
}

func TestSignInAndSession(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/auth/signin", "", strings.NewReader(`{"email":"demo@socialsync.app","password":"wrong-password"}`))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", decode[apiError](t, resp).Message)

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/signin", "", strings.NewReader(`{"email":"demo@socialsync.app","password":"`+demo.Password+`"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decode[struct{ Data signedIn }](t, resp).Data.Token
	require.NotEmpty(t, token)

	resp = do(t, http.MethodGet, srv.URL+"/api/auth/session?wait=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[struct{ Data auth.State }](t, resp).Data
	require.NotNil(t, st.Organization)
	assert.Equal(t, demo.OrganizationID, st.Organization.ID)
	assert.False(t, st.ProfileLoading)

	resp = do(t, http.MethodGet, srv.URL+"/api/notifications", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/notifications", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/api/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCalendarPage(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/calendar?date=2025-10-15", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	b, _ := io.ReadAll(resp.Body)
	page := string(b)
	assert.Contains(t, page, `data-ready="true"`)
	assert.Contains(t, page, `data-date="2025-10-15"`)
	assert.Contains(t, page, "Showing demo data.")
	assert.Contains(t, page, "11:00")

	resp = do(t, http.MethodGet, srv.URL+"/calendar?date=2025-10-15&mode=week", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "Wed Oct 15")
}

func TestMediaUploadAndServe(t *testing.T) {
	srv := newTestServer(t, nil)
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\x00"

	resp := do(t, http.MethodPut, srv.URL+"/api/media/post-media/org-1/a.png", "", strings.NewReader(png))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	obj := decode[struct {
		Data struct {
			URL        string `json:"url"`
			Attachment struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"attachment"`
		}
	}](t, resp).Data
	assert.Equal(t, "/media/post-media/org-1/a.png", obj.URL)
	assert.Equal(t, obj.URL, obj.Attachment.Thumbnail)

	resp = do(t, http.MethodPut, srv.URL+"/api/media/post-media/org-1/a.png", "", strings.NewReader(png))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/media/post-media/org-1/a.png", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, png, string(b))

	resp = do(t, http.MethodDelete, srv.URL+"/api/media/post-media/org-1/a.png", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/media/post-media/org-1/a.png", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaWritesNeedUserWithBackend(t *testing.T) {
	srv := newBackendServer(t)
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\x00"
	url := srv.URL + "/api/media/post-media/demo-org/b.png"

	resp := do(t, http.MethodPut, url, "", strings.NewReader(png))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = do(t, http.MethodDelete, url, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/signin", "", strings.NewReader(`{"email":"demo@socialsync.app","password":"`+demo.Password+`"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decode[struct{ Data signedIn }](t, resp).Data.Token

	resp = do(t, http.MethodPut, url, token, strings.NewReader(png))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = do(t, http.MethodDelete, url, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAdsEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/ads/accounts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accts := decode[struct {
		Data []struct {
			Network    string  `json:"network"`
			SpendToday float64 `json:"spendToday"`
			Campaigns  int     `json:"campaigns"`
		} `json:"data"`
		Meta struct {
			Source string `json:"source"`
		} `json:"meta"`
	}](t, resp)
	assert.Equal(t, "demo", accts.Meta.Source)
	require.Len(t, accts.Data, 4)
	assert.Equal(t, "Facebook Ads", accts.Data[0].Network)
	assert.Equal(t, 2, accts.Data[0].Campaigns)

	resp = do(t, http.MethodGet, srv.URL+"/api/ads/performance?range=30d", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	perf := decode[struct {
		Data struct {
			Totals struct {
				Conversions int     `json:"conversions"`
				ROAS        float64 `json:"roas"`
			} `json:"totals"`
			Days []json.RawMessage `json:"days"`
		} `json:"data"`
	}](t, resp).Data
	assert.Equal(t, 138, perf.Totals.Conversions)
	assert.InDelta(t, 8.43, perf.Totals.ROAS, 0.001)
	assert.Len(t, perf.Days, 12)

	resp = do(t, http.MethodGet, srv.URL+"/api/ads/campaigns", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	camps := decode[struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}](t, resp).Data
	require.Len(t, camps, 4)
	assert.Equal(t, "Lead Generation", camps[0].Name)

	resp = do(t, http.MethodGet, srv.URL+"/api/ads/performance?range=2w", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/ads/export.csv", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ad-performance.csv")
	b, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(b), "date,network,campaign,"))
}

func TestCaptionSuggestions(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/captions/suggest", "", strings.NewReader(`{"platform":"linkedin"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		Data struct {
			Prompt   string `json:"prompt"`
			Captions []struct {
				Text string `json:"text"`
				Tone string `json:"tone"`
			} `json:"captions"`
		} `json:"data"`
	}](t, resp).Data
	assert.Equal(t, "Generate a professional LinkedIn post with industry insights", got.Prompt)
	require.Len(t, got.Captions, 3)
	assert.Equal(t, "Excited", got.Captions[0].Tone)

	resp = do(t, http.MethodPost, srv.URL+"/api/captions/suggest", "", strings.NewReader(`{"platform":"twitter","prompt":"launch week"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[struct {
		Data struct {
			Prompt   string `json:"prompt"`
			Captions []struct {
				Text string `json:"text"`
				Tone string `json:"tone"`
			} `json:"captions"`
		} `json:"data"`
	}](t, resp).Data
	assert.Equal(t, "launch week", got.Prompt)
	require.Len(t, got.Captions, 1)
	assert.Equal(t, "Custom", got.Captions[0].Tone)

	resp = do(t, http.MethodPost, srv.URL+"/api/captions/suggest", "", strings.NewReader(`{"platform":"myspace"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/captions/quick", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[struct {
		Data map[string]string `json:"data"`
	}](t, resp).Data["caption"])

	resp = do(t, http.MethodPost, srv.URL+"/api/generators/gpt4/generate", "", strings.NewReader(`{"platform":"facebook"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	gen := decode[struct {
		Data struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"data"`
	}](t, resp).Data
	assert.Equal(t, "caption", gen.Type)
	assert.Contains(t, gen.Content, "#facebookContent")

	resp = do(t, http.MethodPost, srv.URL+"/api/generators/runway/generate", "", strings.NewReader(`{"platform":"facebook","type":"video"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportsAndFallthrough(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/calendar/export.ics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	b, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(b), "BEGIN:VCALENDAR"))

	resp = do(t, http.MethodGet, srv.URL+"/api/analytics/export.csv?days=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(b), "date,platform,reach"))

	resp = do(t, http.MethodGet, srv.URL+"/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 404, decode[apiError](t, resp).Code)

	resp = do(t, http.MethodGet, srv.URL+"/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "SocialSync")
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":500`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("abc", "abcd"))
}
