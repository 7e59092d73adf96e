package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/newsportal/internal/auth"
	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/comments"
	"github.com/pliu/newsportal/internal/kv"
	"github.com/pliu/newsportal/internal/logging"
	"github.com/pliu/newsportal/internal/middleware"
	"github.com/pliu/newsportal/internal/models"
	"github.com/pliu/newsportal/internal/news"
	"github.com/pliu/newsportal/internal/session"
	"github.com/pliu/newsportal/internal/store/kvstore"
	"github.com/pliu/newsportal/internal/ws"
)

type testServer struct {
	router   *mux.Router
	cookie   *http.Cookie
	comments *comments.Registry
}

type serverOptions struct {
	kv    kv.Store
	feeds []string
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, serverOptions{})
}

func newTestServerWith(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	log := logging.Nop()
	if opts.kv == nil {
		opts.kv = kv.NewMemory()
	}
	profiles := kvstore.Profiles{KV: opts.kv}
	registry := comments.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	router := NewRouter(Deps{
		Signer:   signer,
		Sessions: session.NewService(profiles, session.Options{}, log),
		Chat:     chat.NewService(profiles, hub, chat.Clock{Location: time.UTC}, log),
		Hub:      hub,
		Catalog:  news.NewCatalog(),
		Comments: registry,
		Log:      log,
		Feeds:    opts.feeds,
	})
	return &testServer{router: router, comments: registry}
}

// do sends a request as the same browser profile every time.
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName {
			s.cookie = c
		}
	}
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("handler returned wrong status code: got %v want %v (body %s)", rr.Code, want, rr.Body.String())
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})
	expectStatus(t, rr, http.StatusOK)

	var user models.User
	decodeBody(t, rr, &user)
	if user.ID != "1" || user.Name != "ann" {
		t.Errorf("unexpected user %+v", user)
	}
	if s.cookie == nil {
		t.Error("Expected profile cookie to be set")
	}

	rr = s.do(t, "GET", "/api/profile", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &user)
	if user.Bio != models.DefaultBio {
		t.Errorf("expected default bio, got %q", user.Bio)
	}
}

func TestLoginValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing password", Credentials{Email: "ann@x.com"}},
		{"bad email", Credentials{Email: "ann", Password: "pw"}},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, "POST", "/api/login", tt.body)
			expectStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestRegisterAndLogout(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "POST", "/api/register", RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	expectStatus(t, rr, http.StatusCreated)

	var user models.User
	decodeBody(t, rr, &user)
	if user.Name != "Ann" || user.ID == "" || user.ID == session.LoginID {
		t.Errorf("unexpected user %+v", user)
	}

	expectStatus(t, s.do(t, "POST", "/api/logout", nil), http.StatusNoContent)
	expectStatus(t, s.do(t, "GET", "/api/profile", nil), http.StatusUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, "PUT", "/api/profile", models.ProfileUpdate{Name: "Ann"}), http.StatusUnauthorized)

	s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})

	rr := s.do(t, "PUT", "/api/profile", models.ProfileUpdate{Name: "Анна", Bio: "hi"})
	expectStatus(t, rr, http.StatusOK)
	var user models.User
	decodeBody(t, rr, &user)
	if user.Name != "Анна" || user.Bio != "hi" || user.Email != "ann@x.com" {
		t.Errorf("unexpected user %+v", user)
	}

	expectStatus(t, s.do(t, "PUT", "/api/profile", models.ProfileUpdate{}), http.StatusBadRequest)
}

func TestChatMessages(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "GET", "/api/chat/messages", nil)
	expectStatus(t, rr, http.StatusOK)
	var log []models.ChatMessage
	decodeBody(t, rr, &log)
	if len(log) != 1 || log[0].UserID != models.SystemUserID {
		t.Fatalf("expected welcome message, got %+v", log)
	}

	rr = s.do(t, "POST", "/api/chat/messages", SendMessageRequest{Text: "hello"})
	expectStatus(t, rr, http.StatusUnauthorized)
	var e errorResponse
	decodeBody(t, rr, &e)
	if e.Error != "Войдите в систему, чтобы отправлять сообщения" {
		t.Errorf("unexpected error text %q", e.Error)
	}

	s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})

	expectStatus(t, s.do(t, "POST", "/api/chat/messages", SendMessageRequest{Text: "   "}), http.StatusBadRequest)

	rr = s.do(t, "POST", "/api/chat/messages", SendMessageRequest{Text: "hello"})
	expectStatus(t, rr, http.StatusCreated)

	rr = s.do(t, "GET", "/api/chat/messages", nil)
	decodeBody(t, rr, &log)
	if len(log) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(log))
	}
	if last := log[1]; last.UserID != "1" || last.Text != "hello" {
		t.Errorf("unexpected last message %+v", last)
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})

	other := &testServer{router: s.router}
	expectStatus(t, other.do(t, "GET", "/api/profile", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "GET", "/api/profile", nil), http.StatusOK)
}

func TestSavedNews(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, "POST", "/api/saved/2", nil), http.StatusUnauthorized)

	s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})

	rr := s.do(t, "POST", "/api/saved/2", nil)
	expectStatus(t, rr, http.StatusOK)
	var user models.User
	decodeBody(t, rr, &user)
	if len(user.SavedNews) != 1 || user.SavedNews[0] != 2 {
		t.Errorf("expected [2], got %v", user.SavedNews)
	}

	rr = s.do(t, "GET", "/api/saved", nil)
	expectStatus(t, rr, http.StatusOK)
	var saved []models.Article
	decodeBody(t, rr, &saved)
	if len(saved) != 1 || saved[0].ID != 2 {
		t.Errorf("unexpected saved articles %+v", saved)
	}

	// toggling again restores the original set
	rr = s.do(t, "POST", "/api/saved/2", nil)
	user = models.User{}
	decodeBody(t, rr, &user)
	if len(user.SavedNews) != 0 {
		t.Errorf("expected empty saved set, got %v", user.SavedNews)
	}

	expectStatus(t, s.do(t, "POST", "/api/saved/999", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "DELETE", "/api/saved/999", nil), http.StatusOK)
}

func TestNewsCatalog(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "GET", "/api/news?section=popular", nil)
	expectStatus(t, rr, http.StatusOK)
	var articles []models.Article
	decodeBody(t, rr, &articles)
	if len(articles) != 3 {
		t.Errorf("expected 3 popular articles, got %d", len(articles))
	}

	expectStatus(t, s.do(t, "GET", "/api/news?section=archive", nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, "GET", "/api/news/1", nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", "/api/news/999", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "POST", "/api/news/import", ImportRequest{URL: "not a url"}), http.StatusBadRequest)
}

const testRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Лента</title>
<item><title>Новость</title><link>https://example.org/1</link></item>
</channel></rss>`

func TestImportOnlyConfiguredFeeds(t *testing.T) {
	var fetched atomic.Int32
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched.Add(1)
		w.Write([]byte(testRSS))
	}))
	defer feed.Close()

	s := newTestServerWith(t, serverOptions{feeds: []string{feed.URL}})

	expectStatus(t, s.do(t, "POST", "/api/news/import", ImportRequest{URL: feed.URL}), http.StatusUnauthorized)

	s.do(t, "POST", "/api/login", Credentials{Email: "ann@x.com", Password: "pw"})

	expectStatus(t, s.do(t, "POST", "/api/news/import", ImportRequest{URL: "http://169.254.169.254/latest"}), http.StatusForbidden)
	if n := fetched.Load(); n != 0 {
		t.Fatalf("expected no fetch before an allowed import, got %d", n)
	}

	rr := s.do(t, "POST", "/api/news/import", ImportRequest{URL: feed.URL})
	expectStatus(t, rr, http.StatusCreated)
	var added []models.Article
	decodeBody(t, rr, &added)
	if n := fetched.Load(); len(added) != 1 || n != 1 {
		t.Errorf("expected one article from one fetch, got %d articles, %d fetches", len(added), n)
	}
}

func TestComments(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "GET", "/api/news/1/comments", nil)
	expectStatus(t, rr, http.StatusOK)
	var list []models.Comment
	decodeBody(t, rr, &list)
	if len(list) != 2 {
		t.Fatalf("expected sample comments, got %d", len(list))
	}

	expectStatus(t, s.do(t, "POST", "/api/news/1/comments", AddCommentRequest{Text: " "}), http.StatusBadRequest)

	rr = s.do(t, "POST", "/api/news/1/comments", AddCommentRequest{Text: "first!"})
	expectStatus(t, rr, http.StatusCreated)
	var c models.Comment
	decodeBody(t, rr, &c)
	if c.Author != comments.GuestAuthor {
		t.Errorf("unexpected author %q", c.Author)
	}

	rr = s.do(t, "POST", "/api/news/1/comments/2/like", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &c)
	if c.Likes != 9 {
		t.Errorf("expected 9 likes, got %d", c.Likes)
	}
	expectStatus(t, s.do(t, "POST", "/api/news/1/comments/404/like", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "GET", "/api/news/999/comments", nil), http.StatusNotFound)

	expectStatus(t, s.do(t, "DELETE", "/api/news/1/comments", nil), http.StatusNoContent)
	rr = s.do(t, "GET", "/api/news/1/comments", nil)
	decodeBody(t, rr, &list)
	if len(list) != 2 {
		t.Errorf("expected reset thread, got %d comments", len(list))
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "GET", "/healthz", nil)
	expectStatus(t, rr, http.StatusOK)
	if s.cookie != nil {
		t.Error("healthz should not issue a profile cookie")
	}
}

func TestNoSessionTextOutsideChat(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/profile", "/api/saved"} {
		rr := s.do(t, "GET", path, nil)
		expectStatus(t, rr, http.StatusUnauthorized)
		var e errorResponse
		decodeBody(t, rr, &e)
		if e.Error != NoSessionText {
			t.Errorf("%s: unexpected error text %q", path, e.Error)
		}
	}
}

func TestAbandonedRequests(t *testing.T) {
	s := newTestServer(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	for name, ctx := range map[string]context.Context{"cancelled": cancelled, "deadline": expired} {
		t.Run(name, func(t *testing.T) {
			body, _ := json.Marshal(Credentials{Email: "ann@x.com", Password: "pw"})
			req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body)).WithContext(ctx)
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)
			expectStatus(t, rr, http.StatusServiceUnavailable)
		})
	}
}

// countingKV counts writes reaching the backend.
type countingKV struct {
	kv.Store
	mu     sync.Mutex
	writes int
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.Set(ctx, key, value)
}

func TestCookielessReadsWriteNothing(t *testing.T) {
	backend := &countingKV{Store: kv.NewMemory()}
	s := newTestServerWith(t, serverOptions{kv: backend})

	for i := 0; i < 200; i++ {
		for _, path := range []string{"/api/chat/messages", "/api/news/1/comments", "/api/news?section=latest"} {
			// a fresh client each time, as curl without a cookie jar
			client := &testServer{router: s.router}
			expectStatus(t, client.do(t, "GET", path, nil), http.StatusOK)
		}
	}

	if backend.writes != 0 {
		t.Errorf("kv writes: got %d want 0", backend.writes)
	}
	if n := s.comments.Len(); n != 0 {
		t.Errorf("stored comment threads: got %d want 0", n)
	}
}
