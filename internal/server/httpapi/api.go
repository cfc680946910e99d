// Package httpapi exposes the gatekeeper workflows over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/obs"
	"github.com/foodfellow/gatekeeper/internal/service"
)

// Workflow outcome strings, kept stable for API consumers.
const (
	statusLoginSuccess      = "login-success"
	statusIncorrectPassword = "incorrect-password"
	statusInvalidUsername   = "invalid-username"
	statusAccessDenied      = "access-denied"
	statusRegisterSuccess   = "register-success"
	statusAlreadyRegistered = "already-registered"
	statusRegisterFailure   = "register-failure"
	statusActivateSuccess   = "activation-success"
	statusAlreadyActivated  = "already-activated"
	statusActivateFailure   = "activation-failure"
	statusReportSuccess     = "report-success"
	statusReportFailure     = "report-failure"
	statusRemovalSuccess    = "removal-success"
	statusRemovalFailure    = "removal-failure"
	statusNotLoggedIn       = "not-logged-in"
	statusInternalError     = "internal-error"
)

// API is the HTTP layer over the access, review and report services.
type API struct {
	mux       *http.ServeMux
	access    service.AccessService
	reviews   service.ReviewService
	reports   service.ReportService
	verifyKey []byte
	log       *zap.Logger
}

// New constructs the API and registers its routes.
func New(
	access service.AccessService,
	reviews service.ReviewService,
	reports service.ReportService,
	verifyKey []byte,
	log *zap.Logger,
) *API {
	a := &API{
		mux:       http.NewServeMux(),
		access:    access,
		reviews:   reviews,
		reports:   reports,
		verifyKey: verifyKey,
		log:       log,
	}

	a.mux.HandleFunc("POST /api/register", a.handleRegister)
	a.mux.HandleFunc("GET /api/activate", a.handleActivate)
	a.mux.HandleFunc("POST /api/login", a.handleLogin)
	a.mux.HandleFunc("POST /api/reviews", a.requireUser(a.handleCreateReview))
	a.mux.HandleFunc("GET /api/reviews/{id}", a.handleGetReview)
	a.mux.HandleFunc("POST /api/reports", a.requireUser(a.handleReport))
	a.mux.HandleFunc("GET /api/reports/respond", a.handleRespond)

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.Handle("GET /metrics", obs.Handler())

	return a
}

// Handler returns the instrumented handler chain.
func (a *API) Handler() http.Handler {
	return Recover(a.log, Logging(a.log, obs.Instrument(a.mux)))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	sess, st, err := a.access.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		a.internal(w, r, "login", err)
		return
	}
	switch st {
	case service.LoginSuccess:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       statusLoginSuccess,
			"access_token": sess.AccessToken,
			"expires_at":   sess.ExpiresAt,
		})
	case service.LoginInvalidPassword:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": statusIncorrectPassword})
	case service.LoginNoSuchUser:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": statusInvalidUsername})
	case service.LoginBlocked:
		writeJSON(w, http.StatusForbidden, map[string]any{"status": statusAccessDenied})
	default:
		writeError(w, http.StatusInternalServerError, statusInternalError)
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	st, err := a.access.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		// the outcome is still a plain failure; the cause stays server-side
		a.log.Error("register", zap.Error(err))
	}
	switch st {
	case service.RegisterSuccess:
		writeJSON(w, http.StatusOK, map[string]any{"status": statusRegisterSuccess})
	case service.RegisterAlready:
		writeJSON(w, http.StatusConflict, map[string]any{"status": statusAlreadyRegistered})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]any{"status": statusRegisterFailure})
	}
}

func (a *API) handleActivate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": statusActivateFailure})
		return
	}

	st, err := a.access.Activate(r.Context(), key)
	if err != nil {
		a.internal(w, r, "activate", err)
		return
	}
	switch st {
	case service.ActivateSuccess:
		writeJSON(w, http.StatusOK, map[string]any{"status": statusActivateSuccess})
	case service.ActivateAlready:
		writeJSON(w, http.StatusConflict, map[string]any{"status": statusAlreadyActivated})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": statusActivateFailure})
	}
}

type createReviewRequest struct {
	Body string `json:"body"`
}

func (a *API) handleCreateReview(w http.ResponseWriter, r *http.Request, username string) {
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := a.reviews.Create(r.Context(), username, req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     rev.ID.String(),
		"author": rev.Author,
		"body":   rev.Body,
	})
}

func (a *API) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed review id")
		return
	}
	rev, err := a.reviews.Get(r.Context(), id)
	if errors.Is(err, errs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	if err != nil {
		a.internal(w, r, "get review", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         rev.ID.String(),
		"author":     rev.Author,
		"body":       rev.Body,
		"created_at": rev.CreatedAt,
	})
}

type reportRequest struct {
	ReviewID string `json:"review_id"`
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request, username string) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := uuid.FromString(req.ReviewID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed review id")
		return
	}

	ok, err := a.reports.Report(r.Context(), id, username)
	if err != nil {
		a.log.Error("report", zap.Error(err))
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": statusReportFailure})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": statusReportSuccess})
}

func (a *API) handleRespond(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": statusRemovalFailure})
		return
	}

	ok, err := a.reports.Respond(r.Context(), key)
	if err != nil {
		a.internal(w, r, "respond", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": statusRemovalFailure})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": statusRemovalSuccess})
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "gatekeeper"})
}

func (a *API) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	a.log.Error(op, zap.Error(err), zap.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, statusInternalError)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed JSON body")
	}
	return nil
}

// clientIP extracts the origin address, honoring X-Forwarded-For when a
// proxy sits in front.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
