package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/hashtag-discovery/internal/auth"
	mock_auth "github.com/orgball2608/hashtag-discovery/internal/auth/mocks"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	mock_ingest "github.com/orgball2608/hashtag-discovery/internal/ingest/mocks"
	"github.com/orgball2608/hashtag-discovery/internal/ratelimit"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	ingest *mock_ingest.MockService
	auth   *mock_auth.MockService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mock_ingest.NewMockService(ctrl)
	authSvc := mock_auth.NewMockService(ctrl)

	h := &Handler{
		ingest:  svc,
		auth:    authSvc,
		limiter: ratelimit.NewInMemoryLimiter(60, time.Minute, 2),
		logger:  logger.NewNop(),
		now:     func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	return testServer{router: NewRouter(h), ingest: svc, auth: authSvc}
}

func (s testServer) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func bearer() []string { return []string{"Authorization", "Bearer good-token"} }

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || body["status"] != "healthy" || body["now"] != "2025-03-01T10:00:00Z" {
		t.Fatalf("unexpected health response %d %v", rec.Code, body)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	rec, _ = s.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestIngest(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Authenticate("good-token").Return(int64(3), nil)
	s.ingest.EXPECT().Ingest(gomock.Any(), ingest.Request{
		Hashtags: []string{"coffeedallas"},
		MinViews: 6000,
		Limit:    20,
	}).Return(ingest.Result{Items: []domain.Item{{ID: 1}, {ID: 2}}, Created: 1}, nil)

	rec, body := s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["coffeedallas"]}`, bearer()...)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	if body["ingestedCount"] != float64(2) {
		t.Errorf("unexpected ingestedCount %v", body["ingestedCount"])
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 2 {
		t.Errorf("unexpected items %v", body["items"])
	}
}

func TestIngest_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing hashtags", `{}`, "hashtags is required"},
		{"empty hashtags", `{"hashtags":[]}`, "hashtags must contain at least 1 item(s)"},
		{"empty hashtag", `{"hashtags":["ok",""]}`, "hashtags[1] is required"},
		{"negative minViews", `{"hashtags":["a"],"minViews":-1}`, "minViews must be greater than or equal to 0"},
		{"limit too large", `{"hashtags":["a"],"limit":51}`, "limit must be between 1 and 50"},
		{"limit zero", `{"hashtags":["a"],"limit":0}`, "limit must be between 1 and 50"},
		{"not json", `hashtags`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.auth.EXPECT().Authenticate(gomock.Any()).Return(int64(1), nil)

			rec, body := s.do(t, http.MethodPost, "/api/items/ingest", tt.body, bearer()...)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if body["error"] != tt.want {
				t.Errorf("got error %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestIngest_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["a"]}`)
	if rec.Code != http.StatusUnauthorized || body["error"] != "Missing token" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}

	s.auth.EXPECT().Authenticate("bad").Return(int64(0), apperrors.Wrap(apperrors.ErrUnauthorized, "Invalid token"))
	rec, body = s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["a"]}`, "Authorization", "Bearer bad")
	if rec.Code != http.StatusUnauthorized || body["error"] != "Invalid token" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestIngest_RateLimited(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Authenticate("good-token").Return(int64(7), nil).Times(3)
	s.ingest.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(ingest.Result{}, nil).Times(2)

	for i := 0; i < 2; i++ {
		if rec, _ := s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["a"]}`, bearer()...); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, rec.Code)
		}
	}
	rec, body := s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["a"]}`, bearer()...)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %v", rec.Code, body)
	}
}

func TestIngest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"upstream", apperrors.Upstream(errors.New("graph down")), http.StatusBadGateway, "Ingestion failed"},
		{"storage", apperrors.Storage(errors.New("pool closed")), http.StatusInternalServerError, "Ingestion failed"},
		{"validation", apperrors.Validation("hashtags must contain at least one non-empty tag"), http.StatusBadRequest, "hashtags must contain at least one non-empty tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.auth.EXPECT().Authenticate(gomock.Any()).Return(int64(1), nil)
			s.ingest.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(ingest.Result{}, tt.err)

			rec, body := s.do(t, http.MethodPost, "/api/items/ingest", `{"hashtags":["a"]}`, bearer()...)
			if rec.Code != tt.status || body["error"] != tt.msg {
				t.Fatalf("got %d %v, want %d %q", rec.Code, body, tt.status, tt.msg)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	s.ingest.EXPECT().Search(gomock.Any(), ingest.SearchRequest{
		Hashtags:    []string{"placesindallas", "coffeedallas"},
		MinViews:    100,
		Limit:       50,
		Groups:      []string{"Jazz"},
		Experiences: []string{},
	}).Return([]domain.Item{{ID: 1}}, nil)

	rec, body := s.do(t, http.MethodGet, "/api/items/search?hashtags=placesindallas,%20coffeedallas,&minViews=100&limit=500&groups=Jazz", "")
	if rec.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestSearch_Defaults(t *testing.T) {
	s := newTestServer(t)
	s.ingest.EXPECT().Search(gomock.Any(), ingest.SearchRequest{
		Hashtags:    []string{},
		MinViews:    6000,
		Limit:       20,
		Groups:      []string{},
		Experiences: []string{},
	}).Return(nil, nil)

	rec, body := s.do(t, http.MethodGet, "/api/items/search", "")
	if rec.Code != http.StatusOK || body["count"] != float64(0) {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 0 {
		t.Errorf("items must be an empty array, got %v", body["items"])
	}
}

func TestSearch_BadNumbers(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/items/search?minViews=abc", "/api/items/search?limit=ten", "/api/items/search?limit=0"} {
		if rec, _ := s.do(t, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestImages(t *testing.T) {
	s := newTestServer(t)
	s.ingest.EXPECT().Images(gomock.Any(), []string{"coffeedallas"}, 60).
		Return([]domain.ImagePost{{ID: "p1", ImageURL: "https://cdn/1.jpg", Hashtags: []string{}}}, nil)

	rec, body := s.do(t, http.MethodGet, "/api/items/images?hashtags=coffeedallas&limit=100", "")
	if rec.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/items/images", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing hashtags: expected 400, got %d", rec.Code)
	}
}

func TestImages_Upstream(t *testing.T) {
	s := newTestServer(t)
	s.ingest.EXPECT().Images(gomock.Any(), []string{"a"}, 24).Return(nil, apperrors.Upstream(errors.New("down")))

	rec, body := s.do(t, http.MethodGet, "/api/items/images?hashtags=a", "")
	if rec.Code != http.StatusBadGateway || body["error"] != "Images fetch failed" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestGetItem(t *testing.T) {
	s := newTestServer(t)
	s.ingest.EXPECT().Get(gomock.Any(), int64(4)).Return(&domain.Item{ID: 4, SourcePostID: "abc"}, nil)
	s.ingest.EXPECT().Get(gomock.Any(), int64(5)).Return(nil, apperrors.ErrNotFound)

	rec, body := s.do(t, http.MethodGet, "/api/items/4", "")
	if rec.Code != http.StatusOK || body["sourcePostId"] != "abc" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}

	for _, path := range []string{"/api/items/5", "/api/items/not-a-number"} {
		rec, body := s.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound || body["error"] != "Not found" {
			t.Errorf("%s: unexpected response %d %v", path, rec.Code, body)
		}
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Register(gomock.Any(), auth.RegisterInput{Email: "a@b.co", Password: "secret1", Name: "Ana"}).
		Return(auth.Session{Token: "t", User: &domain.User{ID: 1, Email: "a@b.co", Name: "Ana"}}, nil)

	rec, body := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@b.co","password":"secret1","name":"Ana"}`)
	if rec.Code != http.StatusCreated || body["token"] != "t" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	user, _ := body["user"].(map[string]any)
	if _, leaked := user["passwordHash"]; leaked || user["email"] != "a@b.co" {
		t.Errorf("unexpected user payload %v", user)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"email":"nope","password":"secret1","name":"Ana"}`, "email must be a valid email"},
		{`{"email":"a@b.co","password":"123","name":"Ana"}`, "password length must be at least 6 characters"},
		{`{"email":"a@b.co","password":"secret1"}`, "name is required"},
	}
	for _, tt := range tests {
		s := newTestServer(t)
		rec, body := s.do(t, http.MethodPost, "/api/auth/register", tt.body)
		if rec.Code != http.StatusBadRequest || body["error"] != tt.want {
			t.Errorf("%s: got %d %v, want %q", tt.body, rec.Code, body, tt.want)
		}
	}
}

func TestRegister_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(auth.Session{}, apperrors.Wrap(apperrors.ErrConflict, "Email already registered"))

	rec, body := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@b.co","password":"secret1","name":"Ana"}`)
	if rec.Code != http.StatusConflict || body["error"] != "Email already registered" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Login(gomock.Any(), "a@b.co", "wrong").
		Return(auth.Session{}, apperrors.Wrap(apperrors.ErrUnauthorized, "Invalid credentials"))
	s.auth.EXPECT().Login(gomock.Any(), "a@b.co", "secret1").
		Return(auth.Session{Token: "t", User: &domain.User{ID: 1}}, nil)

	rec, body := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"secret1"}`)
	if rec.Code != http.StatusOK || body["token"] != "t" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	s.auth.EXPECT().Authenticate("good-token").Return(int64(9), nil)
	s.auth.EXPECT().Me(gomock.Any(), int64(9)).Return(&domain.User{ID: 9, Email: "a@b.co"}, nil)

	rec, body := s.do(t, http.MethodGet, "/api/auth/me", "", bearer()...)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	if user, _ := body["user"].(map[string]any); user["id"] != float64(9) {
		t.Errorf("unexpected user %v", body["user"])
	}
}
