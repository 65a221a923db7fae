package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"

	"newsflow/internal/auth"
	"newsflow/internal/database"
	"newsflow/internal/database/dbtest"
	"newsflow/internal/feed"
	"newsflow/internal/housekeeping"
	"newsflow/internal/logger"
)

const (
	testSecret        = "test-secret"
	testAdminPassword = "AdminPass123!"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEnhancer struct {
	calls int
}

func (f *fakeEnhancer) Enhance(_ context.Context, title, _ string) (database.Enhancement, error) {
	f.calls++
	return database.Enhancement{
		Summary:     "AI summary of " + title,
		Enhancement: "Background context",
		KeyPoints:   []string{"first", "second"},
		Sentiment:   "neutral",
	}, nil
}

type testServer struct {
	server   *Server
	db       *database.DB
	verifier *auth.Verifier
	enhancer *fakeEnhancer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.New(t)
	log := logger.Nop()

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("Failed to hash admin password: %v", err)
	}
	verifier := auth.NewVerifier(testSecret)
	enhancer := &fakeEnhancer{}

	srv := NewServer(Deps{
		DB:       db,
		Feeds:    feed.NewService(db, feed.NewFetcher(), nil, log, feed.Options{}),
		Sweeper:  housekeeping.NewSweeper(db, 2, log),
		Enhancer: enhancer,
		Verifier: verifier,
		Admin:    auth.NewAdmin(hash),
		Log:      log,
	}, Config{LoginURL: "https://id.example.com/authorize"})

	return &testServer{server: srv, db: db, verifier: verifier, enhancer: enhancer}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.verifier.Issue(&database.User{ID: userID}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// do performs a request, authenticated as userID when it is non-empty.
func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, userID))
	}
	rr := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func (ts *testServer) seedSource(t *testing.T, name, rssURL string) *database.Source {
	t.Helper()
	src := &database.Source{Name: name, DisplayName: strings.ToUpper(name), RSSURL: rssURL, Category: "technology", IsActive: true}
	if err := ts.db.CreateSource(context.Background(), src); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	return src
}

func (ts *testServer) seedArticles(t *testing.T, src *database.Source, n int) []*database.Article {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	out := make([]*database.Article, 0, n)
	for i := 0; i < n; i++ {
		a := &database.Article{
			Title:       fmt.Sprintf("Article %d", i),
			Content:     "<p>content</p>",
			Summary:     "content",
			URL:         fmt.Sprintf("https://%s.example.com/%d", src.Name, i),
			SourceID:    src.ID,
			Category:    src.Category,
			PublishedAt: base.Add(-time.Duration(i) * time.Minute),
			ReadingTime: 1,
		}
		if _, err := ts.db.InsertArticle(context.Background(), a); err != nil {
			t.Fatalf("Failed to insert article: %v", err)
		}
		out = append(out, a)
	}
	return out
}

func feedServer(t *testing.T, prefix string, items int) *httptest.Server {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>` + prefix + `</title><link>http://example.com</link><description>d</description>`)
	for i := 0; i < items; i++ {
		fmt.Fprintf(&b, `<item><title>%s story %d</title><link>http://example.com/%s/%d</link><description>Story body %d</description></item>`, prefix, i, prefix, i, i)
	}
	b.WriteString(`</channel></rss>`)
	body := b.String()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodPost, "/api/articles/refresh"},
		{http.MethodPost, "/api/articles/1/enhance"},
		{http.MethodGet, "/api/user/preferences"},
		{http.MethodPost, "/api/user/articles"},
		{http.MethodGet, "/api/user/articles/bookmarked"},
		{http.MethodGet, "/api/user/notes"},
		{http.MethodDelete, "/api/user/notes/1"},
		{http.MethodGet, "/api/user/stats"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := ts.do(t, rt.method, rt.path, "", nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			var body map[string]string
			decode(t, rr, &body)
			if body["message"] != "Unauthorized" {
				t.Errorf("message = %q", body["message"])
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", rr.Code)
	}
}

func TestListArticles_Pagination(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	ts.seedArticles(t, src, 35)

	var first, second []database.Article
	rr := ts.do(t, http.MethodGet, "/api/articles?page=1&limit=20", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("page 1 status = %d", rr.Code)
	}
	decode(t, rr, &first)
	rr = ts.do(t, http.MethodGet, "/api/articles?page=2&limit=20", "", nil)
	decode(t, rr, &second)

	if len(first) != 20 || len(second) != 15 {
		t.Fatalf("got %d and %d articles, want 20 and 15", len(first), len(second))
	}
	seen := map[int64]bool{}
	all := append(first, second...)
	for i, a := range all {
		if seen[a.ID] {
			t.Errorf("article %d returned twice", a.ID)
		}
		seen[a.ID] = true
		if i > 0 && a.PublishedAt.After(all[i-1].PublishedAt) {
			t.Errorf("articles not ordered by publishedAt desc at %d", i)
		}
	}
	if first[0].Source == nil || first[0].Source.Name != "alpha" {
		t.Errorf("expected embedded source, got %+v", first[0].Source)
	}
}

func TestListArticles_Filters(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	beta := &database.Source{Name: "beta", DisplayName: "Beta", RSSURL: "https://beta.example.com/rss", Category: "science", IsActive: true}
	if err := ts.db.CreateSource(context.Background(), beta); err != nil {
		t.Fatal(err)
	}
	ts.seedArticles(t, alpha, 3)
	ts.seedArticles(t, beta, 2)

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 5, http.StatusOK},
		{"?category=science", 2, http.StatusOK},
		{"?category=all", 5, http.StatusOK},
		{fmt.Sprintf("?sources=%d", alpha.ID), 3, http.StatusOK},
		{fmt.Sprintf("?sources=%d,%d", alpha.ID, beta.ID), 5, http.StatusOK},
		{"?sources=abc", 0, http.StatusBadRequest},
		{"?limit=1000", 5, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := ts.do(t, http.MethodGet, "/api/articles"+tt.query, "", nil)
			if rr.Code != tt.code {
				t.Fatalf("status = %d, want %d", rr.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var got []database.Article
			decode(t, rr, &got)
			if len(got) != tt.want {
				t.Errorf("got %d articles, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGetArticle(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	articles := ts.seedArticles(t, src, 1)

	rr := ts.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d", articles[0].ID), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/api/articles/9999", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing article status = %d, want 404", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/api/articles/abc", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rr.Code)
	}
}

func TestRefreshAndEnhanceScenario(t *testing.T) {
	ts := newTestServer(t)
	ts.seedSource(t, "one", feedServer(t, "one", 5).URL)
	ts.seedSource(t, "two", feedServer(t, "two", 5).URL)

	rr := ts.do(t, http.MethodPost, "/api/articles/refresh", "reader", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rr.Code, rr.Body.String())
	}
	var refresh struct {
		Success bool               `json:"success"`
		Report  feed.RefreshReport `json:"report"`
	}
	decode(t, rr, &refresh)
	if !refresh.Success || refresh.Report.Inserted != 10 {
		t.Fatalf("unexpected refresh response: %s", rr.Body.String())
	}

	var articles []database.Article
	decode(t, ts.do(t, http.MethodGet, "/api/articles?limit=50", "", nil), &articles)
	if len(articles) != 10 {
		t.Fatalf("expected 10 articles, got %d", len(articles))
	}
	for _, a := range articles {
		if a.IsProcessed {
			t.Fatalf("article %d processed before enhancement", a.ID)
		}
	}

	target := articles[3]
	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/api/articles/%d/enhance", target.ID), "reader", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("enhance status = %d: %s", rr.Code, rr.Body.String())
	}
	var enh enhanceResponse
	decode(t, rr, &enh)
	if enh.Summary == "" || len(enh.KeyPoints) != 2 {
		t.Errorf("unexpected enhancement: %+v", enh)
	}

	decode(t, ts.do(t, http.MethodGet, "/api/articles?limit=50", "", nil), &articles)
	for _, a := range articles {
		if a.ID == target.ID {
			if !a.IsProcessed || a.AISummary == nil || *a.AISummary == "" {
				t.Errorf("enhanced article not updated: %+v", a)
			}
			continue
		}
		if a.IsProcessed || a.AISummary != nil {
			t.Errorf("article %d changed unexpectedly", a.ID)
		}
	}

	if rr := ts.do(t, http.MethodPost, "/api/articles/9999/enhance", "reader", nil); rr.Code != http.StatusNotFound {
		t.Errorf("enhance missing article status = %d, want 404", rr.Code)
	}
	if ts.enhancer.calls != 1 {
		t.Errorf("enhancer called %d times, want 1", ts.enhancer.calls)
	}
}

func TestEnhance_NotConfigured(t *testing.T) {
	ts := newTestServer(t)
	ts.server.enhancer = nil
	rr := ts.do(t, http.MethodPost, "/api/articles/1/enhance", "reader", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestUserArticles(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	articles := ts.seedArticles(t, src, 2)
	id := articles[0].ID

	rr := ts.do(t, http.MethodPost, "/api/user/articles", "reader", map[string]interface{}{"articleId": id, "isBookmarked": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("bookmark status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = ts.do(t, http.MethodPost, "/api/user/articles", "reader", map[string]interface{}{"articleId": id, "isRead": true})
	var ua database.UserArticle
	decode(t, rr, &ua)
	if !ua.IsBookmarked || !ua.IsRead || ua.ReadAt == nil {
		t.Errorf("fields not merged: %+v", ua)
	}

	var bookmarked []database.ArticleWithState
	decode(t, ts.do(t, http.MethodGet, "/api/user/articles/bookmarked", "reader", nil), &bookmarked)
	if len(bookmarked) != 1 || bookmarked[0].ID != id || !bookmarked[0].UserArticle.IsBookmarked {
		t.Errorf("unexpected bookmarked list: %+v", bookmarked)
	}
	var read []database.ArticleWithState
	decode(t, ts.do(t, http.MethodGet, "/api/user/articles/read?limit=10", "reader", nil), &read)
	if len(read) != 1 {
		t.Errorf("expected 1 read article, got %d", len(read))
	}

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"missing article id", map[string]interface{}{"isRead": true}, http.StatusBadRequest},
		{"progress out of range", map[string]interface{}{"articleId": id, "readingProgress": 150}, http.StatusBadRequest},
		{"unknown article", map[string]interface{}{"articleId": 9999, "isRead": true}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := ts.do(t, http.MethodPost, "/api/user/articles", "reader", tt.body); rr.Code != tt.code {
				t.Errorf("status = %d, want %d", rr.Code, tt.code)
			}
		})
	}
}

func TestNotes_OwnerScoped(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	article := ts.seedArticles(t, src, 1)[0]

	rr := ts.do(t, http.MethodPost, "/api/user/notes", "owner", map[string]interface{}{"articleId": article.ID, "content": "my note"})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	var note database.UserNote
	decode(t, rr, &note)
	path := fmt.Sprintf("/api/user/notes/%d", note.ID)

	if rr := ts.do(t, http.MethodPut, path, "intruder", map[string]string{"content": "hijacked"}); rr.Code != http.StatusNotFound {
		t.Errorf("foreign update status = %d, want 404", rr.Code)
	}
	if rr := ts.do(t, http.MethodDelete, path, "intruder", nil); rr.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want 404", rr.Code)
	}
	var foreign []database.UserNote
	decode(t, ts.do(t, http.MethodGet, "/api/user/notes", "intruder", nil), &foreign)
	if len(foreign) != 0 {
		t.Errorf("intruder sees %d notes", len(foreign))
	}

	rr = ts.do(t, http.MethodPut, path, "owner", map[string]string{"content": "edited"})
	decode(t, rr, &note)
	if note.Content != "edited" {
		t.Errorf("content = %q, want edited", note.Content)
	}

	var mine []database.UserNote
	decode(t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/user/notes?articleId=%d", article.ID), "owner", nil), &mine)
	if len(mine) != 1 {
		t.Errorf("expected 1 note, got %d", len(mine))
	}

	if rr := ts.do(t, http.MethodDelete, path, "owner", nil); rr.Code != http.StatusOK {
		t.Errorf("delete status = %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodDelete, path, "owner", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}

	if rr := ts.do(t, http.MethodPost, "/api/user/notes", "owner", map[string]interface{}{"articleId": article.ID, "content": ""}); rr.Code != http.StatusBadRequest {
		t.Errorf("empty note status = %d, want 400", rr.Code)
	}
}

func TestPreferences(t *testing.T) {
	ts := newTestServer(t)

	var prefs database.UserPreferences
	decode(t, ts.do(t, http.MethodGet, "/api/user/preferences", "reader", nil), &prefs)
	if prefs.DailyReadingGoal != database.DefaultDailyReadingGoal || len(prefs.Categories) != 0 {
		t.Errorf("unexpected default preferences: %+v", prefs)
	}

	rr := ts.do(t, http.MethodPost, "/api/user/preferences", "reader", map[string]interface{}{
		"categories":       []string{"technology", "science"},
		"dailyReadingGoal": 30,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, ts.do(t, http.MethodGet, "/api/user/preferences", "reader", nil), &prefs)
	if prefs.DailyReadingGoal != 30 || len(prefs.Categories) != 2 {
		t.Errorf("preferences not saved: %+v", prefs)
	}

	if rr := ts.do(t, http.MethodPost, "/api/user/preferences", "reader", map[string]interface{}{"dailyReadingGoal": 0}); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid goal status = %d, want 400", rr.Code)
	}
}

func TestReadingHistoryAndStats(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	article := ts.seedArticles(t, src, 1)[0]

	now := time.Now().UTC()
	for _, offset := range []int{0, -1, -2, -4} {
		body := map[string]interface{}{
			"articleId":   article.ID,
			"readingTime": 5,
			"date":        now.AddDate(0, 0, offset),
		}
		if rr := ts.do(t, http.MethodPost, "/api/user/reading-history", "reader", body); rr.Code != http.StatusOK {
			t.Fatalf("history status = %d: %s", rr.Code, rr.Body.String())
		}
	}

	var stats database.ReadingStats
	decode(t, ts.do(t, http.MethodGet, "/api/user/stats?days=30", "reader", nil), &stats)
	if stats.ArticlesRead != 4 || stats.TotalReadingTime != 20 || stats.Streak != 3 {
		t.Errorf("stats = %+v, want 4 reads, 20 minutes, streak 3", stats)
	}

	if rr := ts.do(t, http.MethodGet, "/api/user/stats?days=0", "reader", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("days=0 status = %d, want 400", rr.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/login", "", nil)
	if rr.Code != http.StatusFound || !strings.HasPrefix(rr.Header().Get("Location"), "https://id.example.com/authorize?redirect_uri=") {
		t.Fatalf("login redirect = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	email := "ada@example.com"
	providerToken, err := ts.verifier.Issue(&database.User{ID: "ada", Email: &email}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	rr = ts.do(t, http.MethodGet, "/api/callback?token="+providerToken, "", nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("callback status = %d: %s", rr.Code, rr.Body.String())
	}
	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" || !session.HttpOnly {
		t.Fatalf("session cookie not set: %+v", rr.Result().Cookies())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(session)
	rr = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("auth/user status = %d", rr.Code)
	}
	var user database.User
	decode(t, rr, &user)
	if user.ID != "ada" || user.Email == nil || *user.Email != email {
		t.Errorf("unexpected user: %+v", user)
	}

	if rr := ts.do(t, http.MethodGet, "/api/callback?token=bogus", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("bogus callback status = %d, want 401", rr.Code)
	}

	rr = ts.do(t, http.MethodGet, "/api/logout", "", nil)
	if rr.Code != http.StatusFound || !strings.Contains(rr.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("logout did not clear cookie: %d %q", rr.Code, rr.Header().Get("Set-Cookie"))
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	feedSrv := feedServer(t, "fresh", 3)

	adminReq := func(method, path string, body interface{}, password string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			b, _ := json.Marshal(body)
			reader = bytes.NewReader(b)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if password != "" {
			req.SetBasicAuth(auth.AdminUsername, password)
		}
		rr := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rr, req)
		return rr
	}

	rr := adminReq(http.MethodGet, "/api/admin/sources", nil, "")
	if rr.Code != http.StatusUnauthorized || rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("anonymous admin status = %d, challenge %q", rr.Code, rr.Header().Get("WWW-Authenticate"))
	}
	if rr := adminReq(http.MethodGet, "/api/admin/sources", nil, "wrong"); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", rr.Code)
	}

	rr = adminReq(http.MethodPost, "/api/admin/sources", map[string]string{"name": "fresh", "rssUrl": feedSrv.URL}, testAdminPassword)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create source status = %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Source database.Source `json:"source"`
	}
	decode(t, rr, &created)
	if created.Source.DisplayName != "fresh" || created.Source.Category != "general" {
		t.Errorf("unexpected source defaults: %+v", created.Source)
	}

	if rr := adminReq(http.MethodPost, "/api/admin/sources", map[string]string{"name": "fresh", "rssUrl": feedSrv.URL}, testAdminPassword); rr.Code != http.StatusConflict {
		t.Errorf("duplicate source status = %d, want 409", rr.Code)
	}
	if rr := adminReq(http.MethodPost, "/api/admin/sources", map[string]string{"name": "bad", "rssUrl": "not a url"}, testAdminPassword); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid url status = %d, want 400", rr.Code)
	}

	rr = adminReq(http.MethodPatch, fmt.Sprintf("/api/admin/sources/%d", created.Source.ID), map[string]bool{"isActive": false}, testAdminPassword)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rr.Code, rr.Body.String())
	}
	var sources []database.Source
	decode(t, ts.do(t, http.MethodGet, "/api/sources", "", nil), &sources)
	if len(sources) != 0 {
		t.Errorf("inactive source still listed publicly: %+v", sources)
	}

	rr = adminReq(http.MethodGet, "/api/admin/retention", nil, testAdminPassword)
	if rr.Code != http.StatusOK {
		t.Fatalf("retention stats status = %d", rr.Code)
	}
	var stats housekeeping.RetentionStats
	decode(t, rr, &stats)
	if stats.RetentionDays != 2 {
		t.Errorf("retentionDays = %d", stats.RetentionDays)
	}
	if rr := adminReq(http.MethodPost, "/api/admin/retention/run", nil, testAdminPassword); rr.Code != http.StatusOK {
		t.Errorf("retention run status = %d", rr.Code)
	}
}

func TestHealthzRSSAndGzip(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t, "alpha", "https://alpha.example.com/rss")
	ts.seedArticles(t, src, 3)

	rr := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("healthz status = %d, request id %q", rr.Code, rr.Header().Get("X-Request-ID"))
	}

	rr = ts.do(t, http.MethodGet, "/rss", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("rss status = %d", rr.Code)
	}
	parsed, err := gofeed.NewParser().ParseString(rr.Body.String())
	if err != nil {
		t.Fatalf("rss output does not parse: %v", err)
	}
	if len(parsed.Items) != 3 {
		t.Errorf("rss items = %d, want 3", len(parsed.Items))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, headers: %v", rr.Header())
	}
	zr, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("invalid gzip body: %v", err)
	}
	var articles []database.Article
	if err := json.NewDecoder(zr).Decode(&articles); err != nil {
		t.Fatalf("failed to decode gzip body: %v", err)
	}
	if len(articles) != 3 {
		t.Errorf("got %d articles, want 3", len(articles))
	}

	if rr := ts.do(t, http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "newsflow_http_requests_total") {
		t.Errorf("metrics endpoint status = %d", rr.Code)
	}
}
