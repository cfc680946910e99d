package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/foodfellow/gatekeeper/internal/service"
)

var testKey = []byte("test-verify-key")

type stubAccess struct {
	loginStatus    service.LoginStatus
	loginAddr      string
	registerStatus service.RegisterStatus
	activateStatus service.ActivateStatus
}

var _ service.AccessService = (*stubAccess)(nil)

func (s *stubAccess) Login(_ context.Context, _, _, address string) (model.Session, service.LoginStatus, error) {
	s.loginAddr = address
	if s.loginStatus == service.LoginSuccess {
		return model.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Minute)}, s.loginStatus, nil
	}
	return model.Session{}, s.loginStatus, nil
}

func (s *stubAccess) Register(context.Context, string, string) (service.RegisterStatus, error) {
	return s.registerStatus, nil
}

func (s *stubAccess) Activate(context.Context, string) (service.ActivateStatus, error) {
	return s.activateStatus, nil
}

type stubReviews struct {
	rev    *model.Review
	getErr error
}

var _ service.ReviewService = (*stubReviews)(nil)

func (s *stubReviews) Create(_ context.Context, author, body string) (*model.Review, error) {
	return &model.Review{ID: uuid.Must(uuid.NewV4()), Author: author, Body: body}, nil
}

func (s *stubReviews) Get(context.Context, uuid.UUID) (*model.Review, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.rev, nil
}

type stubReports struct {
	reportOK  bool
	respondOK bool
	reporter  string
}

var _ service.ReportService = (*stubReports)(nil)

func (s *stubReports) Report(_ context.Context, _ uuid.UUID, reporter string) (bool, error) {
	s.reporter = reporter
	return s.reportOK, nil
}

func (s *stubReports) Respond(context.Context, string) (bool, error) {
	return s.respondOK, nil
}

type fixture struct {
	api     *API
	access  *stubAccess
	reviews *stubReviews
	reports *stubReports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	access := &stubAccess{}
	reviews := &stubReviews{}
	reports := &stubReports{}
	api := New(access, reviews, reports, testKey, zap.NewNop())
	return &fixture{api: api, access: access, reviews: reviews, reports: reports}
}

func doJSON(t *testing.T, h http.Handler, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.2.3:5123"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("bad response JSON %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func signToken(t *testing.T, subject string, key []byte) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestHandleLogin_StatusMapping(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		status     service.LoginStatus
		wantCode   int
		wantStatus string
	}{
		{service.LoginSuccess, http.StatusOK, "login-success"},
		{service.LoginInvalidPassword, http.StatusUnauthorized, "incorrect-password"},
		{service.LoginNoSuchUser, http.StatusUnauthorized, "invalid-username"},
		{service.LoginBlocked, http.StatusForbidden, "access-denied"},
	} {
		fx := newFixture(t)
		fx.access.loginStatus = tc.status
		w, out := doJSON(t, fx.api.Handler(), http.MethodPost, "/api/login",
			`{"username":"alice","password":"pw"}`, "")
		if w.Code != tc.wantCode {
			t.Fatalf("status %v: code=%d, want %d", tc.status, w.Code, tc.wantCode)
		}
		if out["status"] != tc.wantStatus {
			t.Fatalf("status %v: got %q, want %q", tc.status, out["status"], tc.wantStatus)
		}
	}
}

func TestHandleLogin_PassesClientIP(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	doJSON(t, fx.api.Handler(), http.MethodPost, "/api/login",
		`{"username":"alice","password":"pw"}`, "")
	if fx.access.loginAddr != "10.1.2.3" {
		t.Fatalf("address=%q, want host part of RemoteAddr", fx.access.loginAddr)
	}
}

func TestHandleLogin_BadRequest(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	w, _ := doJSON(t, fx.api.Handler(), http.MethodPost, "/api/login", `{"username":""}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d, want 400", w.Code)
	}
	w, _ = doJSON(t, fx.api.Handler(), http.MethodPost, "/api/login", `not json`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d, want 400 for malformed JSON", w.Code)
	}
}

func TestHandleRegisterAndActivate(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	fx.access.registerStatus = service.RegisterSuccess
	w, out := doJSON(t, fx.api.Handler(), http.MethodPost, "/api/register",
		`{"username":"a@example.com","password":"pw"}`, "")
	if w.Code != http.StatusOK || out["status"] != "register-success" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}

	fx.access.registerStatus = service.RegisterAlready
	w, out = doJSON(t, fx.api.Handler(), http.MethodPost, "/api/register",
		`{"username":"a@example.com","password":"pw"}`, "")
	if w.Code != http.StatusConflict || out["status"] != "already-registered" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}

	fx.access.activateStatus = service.ActivateSuccess
	w, out = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/activate?key=tok", "", "")
	if w.Code != http.StatusOK || out["status"] != "activation-success" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}

	fx.access.activateStatus = service.ActivateFailure
	w, out = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/activate?key=bad", "", "")
	if w.Code != http.StatusBadRequest || out["status"] != "activation-failure" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}

	// missing key short-circuits
	w, _ = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/activate", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d, want 400 for missing key", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.reports.reportOK = true
	body := `{"review_id":"` + uuid.Must(uuid.NewV4()).String() + `"}`

	// no token
	w, out := doJSON(t, fx.api.Handler(), http.MethodPost, "/api/reports", body, "")
	if w.Code != http.StatusUnauthorized || out["status"] != "not-logged-in" {
		t.Fatalf("code=%d status=%v, want 401 not-logged-in", w.Code, out["status"])
	}

	// token signed with the wrong key
	bad := signToken(t, "alice", []byte("other-key"))
	w, _ = doJSON(t, fx.api.Handler(), http.MethodPost, "/api/reports", body, bad)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d, want 401 for wrong-key token", w.Code)
	}

	// valid token reaches the handler with the subject as reporter
	good := signToken(t, "alice", testKey)
	w, out = doJSON(t, fx.api.Handler(), http.MethodPost, "/api/reports", body, good)
	if w.Code != http.StatusOK || out["status"] != "report-success" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}
	if fx.reports.reporter != "alice" {
		t.Fatalf("reporter=%q, want subject of the bearer token", fx.reports.reporter)
	}
}

func TestHandleRespond(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	fx.reports.respondOK = true
	w, out := doJSON(t, fx.api.Handler(), http.MethodGet, "/api/reports/respond?key=tok", "", "")
	if w.Code != http.StatusOK || out["status"] != "removal-success" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}

	fx.reports.respondOK = false
	w, out = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/reports/respond?key=tok", "", "")
	if w.Code != http.StatusBadRequest || out["status"] != "removal-failure" {
		t.Fatalf("code=%d status=%v", w.Code, out["status"])
	}
}

func TestReviews_CreateAndGet(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	tok := signToken(t, "bob", testKey)

	w, out := doJSON(t, fx.api.Handler(), http.MethodPost, "/api/reviews",
		`{"body":"soggy fries"}`, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("code=%d, want 201", w.Code)
	}
	if out["author"] != "bob" || out["body"] != "soggy fries" {
		t.Fatalf("bad review response: %v", out)
	}

	id := uuid.Must(uuid.NewV4())
	fx.reviews.rev = &model.Review{ID: id, Author: "bob", Body: "soggy fries"}
	w, out = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/reviews/"+id.String(), "", "")
	if w.Code != http.StatusOK || out["id"] != id.String() {
		t.Fatalf("code=%d id=%v", w.Code, out["id"])
	}

	fx.reviews.rev = nil
	fx.reviews.getErr = errs.ErrNotFound
	w, _ = doJSON(t, fx.api.Handler(), http.MethodGet, "/api/reviews/"+id.String(), "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("code=%d, want 404", w.Code)
	}
}
