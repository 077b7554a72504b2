package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/corpus"
	"github.com/starford/inkgraph/internal/database"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/fingerprint"
	"github.com/starford/inkgraph/internal/models"
	"github.com/starford/inkgraph/internal/postservice"
	"github.com/starford/inkgraph/internal/testutil"
)

const cookieName = "visitor_id"

// testEnv sets up a temp corpus with posts "a" and "b" and a router over it.
// withDB=false leaves the relational store unconfigured.
func testEnv(t *testing.T, withDB bool) http.Handler {
	t.Helper()
	_, store := testutil.TestCorpus(t, map[string]string{
		"a.md": testutil.Post("a", "Post A", "2024-01-01", []string{"go"}, "Links to [[b]]."),
		"b.md": testutil.Post("b", "Post B", "2024-02-01", []string{"go", "sql"}, "Plain."),
	})

	var db *database.DB
	if withDB {
		db = testutil.TestDB(t)
	}

	return NewRouter(RouterConfig{
		Posts:    postservice.NewService(corpus.NewLoader(store, nil), ""),
		Ledger:   engagement.NewLedger(db),
		Comments: comments.NewStore(db, comments.WithCost(bcrypt.MinCost)),
		Deriver:  fingerprint.New("test-secret"),
		Cookie:   VisitorCookie{Name: cookieName, MaxAge: 3600},
	})
}

func do(t *testing.T, h http.Handler, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "10.0.0.1:4000"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func visitorCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

func TestGraph_ETag(t *testing.T) {
	router := testEnv(t, false)

	w := do(t, router, http.MethodGet, "/graph", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph status = %d", w.Code)
	}
	var snap models.GraphSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Stats.TotalPosts != 2 || snap.Stats.TotalTags != 2 || snap.Stats.RefEdges != 1 {
		t.Errorf("stats = %+v", snap.Stats)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional graph status = %d, want 304", w.Code)
	}
}

func TestPosts_ListAndGet(t *testing.T) {
	router := testEnv(t, false)

	w := do(t, router, http.MethodGet, "/posts?limit=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Posts) != 1 || list.Posts[0].ID != "b" {
		t.Errorf("posts = %+v", list.Posts)
	}

	if w := do(t, router, http.MethodGet, "/posts?limit=x", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/posts/a", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var post models.PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Body != "Links to [b](/post/b)." {
		t.Errorf("body = %q", post.Body)
	}

	if w := do(t, router, http.MethodGet, "/posts/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing post status = %d", w.Code)
	}
}

func TestUnknownPostRejectedBeforeEngagement(t *testing.T) {
	router := testEnv(t, true)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/posts/nope/metrics"},
		{http.MethodPost, "/posts/nope/like"},
		{http.MethodPost, "/posts/nope/view"},
		{http.MethodGet, "/posts/nope/comments"},
	} {
		if w := do(t, router, tc.method, tc.path, nil, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, w.Code)
		}
	}
}

func TestLikeToggleWithVisitorCookie(t *testing.T) {
	router := testEnv(t, true)

	w := do(t, router, http.MethodPost, "/posts/a/like", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like status = %d, body = %s", w.Code, w.Body.String())
	}
	cookie := visitorCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("visitor cookie should be HttpOnly")
	}
	var res models.EventResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Counted || res.Metrics.Likes != 1 || !res.Metrics.LikedByMe {
		t.Fatalf("like = %+v", res)
	}

	w = do(t, router, http.MethodGet, "/posts/a/metrics", nil, cookie)
	var m models.PostMetrics
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if !m.LikedByMe || m.Likes != 1 {
		t.Errorf("metrics with cookie = %+v", m)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("existing visitor should not get a new cookie")
	}

	w = do(t, router, http.MethodPost, "/posts/a/like", nil, cookie)
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Counted || res.Metrics.Likes != 0 || res.Metrics.LikedByMe {
		t.Errorf("unlike = %+v", res)
	}
}

func TestViewCountedOncePerVisitor(t *testing.T) {
	router := testEnv(t, true)

	w := do(t, router, http.MethodPost, "/posts/b/view", nil, nil)
	cookie := visitorCookie(t, w)
	var first models.EventResult
	_ = json.Unmarshal(w.Body.Bytes(), &first)
	if !first.Counted || !first.Metrics.ViewCounted || first.Metrics.Views != 1 {
		t.Fatalf("first view = %+v", first)
	}

	w = do(t, router, http.MethodPost, "/posts/b/view", nil, cookie)
	var second models.EventResult
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if second.Counted || second.Metrics.Views != 1 {
		t.Errorf("repeat view = %+v", second)
	}
}

func TestSameOrigin(t *testing.T) {
	router := testEnv(t, true)

	req := httptest.NewRequest(http.MethodPost, "/posts/a/like", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("cross-origin like = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/posts/a/like", nil)
	req.Header.Set("Origin", "http://"+req.Host)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("same-origin like = %d, want 200", w.Code)
	}

	// Reads are not origin-checked.
	req = httptest.NewRequest(http.MethodGet, "/posts/a/metrics", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cross-origin metrics = %d, want 200", w.Code)
	}
}

func TestCommentLifecycle(t *testing.T) {
	router := testEnv(t, true)

	w := do(t, router, http.MethodPost, "/posts/a/comments", map[string]string{
		"authorName": "Ada", "password": "secret", "content": "First!",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CommentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Comment == nil || created.Comment.AuthorName != "Ada" {
		t.Fatalf("created = %+v", created.Comment)
	}
	if strings.Contains(w.Body.String(), "secret") || strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaks password: %s", w.Body.String())
	}
	path := fmt.Sprintf("/posts/a/comments/%d", created.Comment.ID)

	w = do(t, router, http.MethodPatch, path, map[string]string{"password": "wrong", "content": "hacked"}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong password patch = %d, want 403", w.Code)
	}

	w = do(t, router, http.MethodPatch, path, map[string]string{"password": "secret", "content": "Edited"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/posts/a/comments", nil, nil)
	var list CommentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Comments) != 1 || list.Comments[0].Content != "Edited" {
		t.Errorf("comments = %+v", list.Comments)
	}

	w = do(t, router, http.MethodDelete, path, map[string]string{"password": "secret"}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":true`) {
		t.Fatalf("delete = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodDelete, path, map[string]string{"password": "secret"}, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodGet, "/posts/a/comments", nil, nil)
	if !strings.Contains(w.Body.String(), `"comments":[]`) {
		t.Errorf("comments after delete = %s", w.Body.String())
	}
}

func TestCommentValidation(t *testing.T) {
	router := testEnv(t, true)

	w := do(t, router, http.MethodPost, "/posts/a/comments", map[string]string{
		"authorName": "Ada", "password": "pw", "content": strings.Repeat("x", comments.MaxContentLength+1),
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized content = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/posts/a/comments", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", rec.Code)
	}

	for _, id := range []string{"0", "-3", "abc"} {
		w := do(t, router, http.MethodPatch, "/posts/a/comments/"+id, map[string]string{"password": "pw", "content": "x"}, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("comment id %q = %d, want 400", id, w.Code)
		}
	}

	w = do(t, router, http.MethodGet, "/posts/a/comments", nil, nil)
	if !strings.Contains(w.Body.String(), `"comments":[]`) {
		t.Errorf("rejected comments were stored: %s", w.Body.String())
	}
}

func TestUnconfiguredDatabase(t *testing.T) {
	router := testEnv(t, false)

	w := do(t, router, http.MethodPost, "/posts/a/comments", map[string]string{
		"authorName": "Ada", "password": "pw", "content": "hi",
	}, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("create without db = %d, want 503", w.Code)
	}

	w = do(t, router, http.MethodPost, "/posts/a/like", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like without db = %d", w.Code)
	}
	var res models.EventResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Counted || res.Metrics.Likes != 0 || res.Metrics.PostID != "a" {
		t.Errorf("like without db = %+v", res)
	}

	w = do(t, router, http.MethodGet, "/posts/a/comments", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"comments":[]`) {
		t.Errorf("list without db = %d %s", w.Code, w.Body.String())
	}
}
