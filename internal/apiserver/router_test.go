package apiserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/auth"
	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/config"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/review"
	"github.com/cappelaere/wai-bee/internal/session"
	"github.com/cappelaere/wai-bee/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires a full router over a temp scholarship tree with one
// scored application.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	root := t.TempDir()
	bpw := filepath.Join(root, "bpw")
	require.NoError(t, os.MkdirAll(filepath.Join(bpw, "WAI-001"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(bpw, "WAI-001", cnst.AnalysisFileName),
		[]byte(`{"scores": {"overall": 80, "completeness": 25, "validity": 25, "attachment": 30}}`),
		0o644))

	source := fmt.Sprintf(`
users:
  gale:
    name: Gale Reviewer
    role: reviewer
    enabled: true
    scholarships: [bpw]
    permissions: [read, write]
    password_ref: GALE_PASSWORD
    initials: GR
  viewer:
    name: View Only
    role: reviewer
    enabled: true
    scholarships: [stem]
    permissions: [read]
    password_ref: VIEWER_PASSWORD
    initials: VO
scholarships:
  bpw:
    name: BPW Scholarship
    short_name: BPW
    data_folder: %s
    enabled: true
  stem:
    name: STEM Scholarship
    short_name: STEM
    data_folder: %s
    enabled: true
`, bpw, filepath.Join(root, "stem"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stem"), 0o755))

	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(source), 0o644))

	logger := zap.NewNop()
	dir := directory.New(logger, cfgPath)
	store := session.NewMemoryStore(logger, 24*time.Hour)
	authService := auth.NewService(logger, dir, store)
	ledger := review.NewLedger(logger, dir)
	m := metrics.New(config.MetricsConfig{})

	return NewRouter(logger, dir, authService, ledger, m)
}

func login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func doJSON(router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_BadCredentials(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")

	body, _ := json.Marshal(map[string]string{"username": "gale", "password": "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/scholarships", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/scholarships", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCookieTokenAccepted(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: cnst.SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gale")
}

func TestScholarshipScopes(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodGet, "/api/scholarships", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bpw")
	assert.NotContains(t, w.Body.String(), "stem")

	// gale is scoped to bpw; stem is forbidden
	w = doJSON(router, http.MethodGet, "/api/scholarships/stem/scores", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScoresAndStatistics(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodGet, "/api/scholarships/bpw/scores", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "WAI-001")

	w = doJSON(router, http.MethodGet, "/api/scholarships/bpw/scores/top?limit=5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/scholarships/bpw/scores/top?limit=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/scholarships/bpw/statistics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot struct {
		Total int     `json:"total"`
		Mean  float64 `json:"mean"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, 1, snapshot.Total)
	assert.InDelta(t, 80.0, snapshot.Mean, 0.0001)
}

func TestReviewFlow(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodPost, "/api/scholarships/bpw/reviews", token,
		map[string]any{"wai_number": "WAI-001", "score": 8, "comment": "strong"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"initials":"GR"`)

	w = doJSON(router, http.MethodGet, "/api/reviews", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "WAI-001")

	w = doJSON(router, http.MethodPost, "/api/scholarships/bpw/reviews/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_score")
}

func TestReviewSummary_NoRecords(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodPost, "/api/scholarships/bpw/reviews/summary", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitReview_WriteRequired(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("VIEWER_PASSWORD", "pass")
	token := login(t, router, "viewer", "pass")

	w := doJSON(router, http.MethodPost, "/api/scholarships/stem/reviews", token,
		map[string]any{"wai_number": "WAI-002", "score": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelectScholarship(t *testing.T) {
	router := newTestRouter(t)
	t.Setenv("GALE_PASSWORD", "pass")
	token := login(t, router, "gale", "pass")

	w := doJSON(router, http.MethodPost, "/api/auth/scholarship", token,
		map[string]string{"scholarship": "bpw"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scholarship":"bpw"`)

	// out-of-scope selection is refused
	w = doJSON(router, http.MethodPost, "/api/auth/scholarship", token,
		map[string]string{"scholarship": "stem"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
