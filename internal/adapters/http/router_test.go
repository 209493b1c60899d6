package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disasterline/alert-backend/internal/adapters/security"
	"github.com/disasterline/alert-backend/internal/application"
	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

const testSecret = "router-test-secret"

type routerFixture struct {
	handler http.Handler
	users   *testutil.Users
	clock   *testutil.Clock
	tokens  *security.HMACTokenService
	metrics *Metrics
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	tokens, err := security.NewHMACTokenService([]byte(testSecret), clock.Now)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	users := testutil.NewUsers()
	svc := application.NewService(application.Dependencies{
		Config:    application.Config{AllowSignupRole: true},
		Users:     users,
		Profiles:  testutil.NewProfiles(),
		Reports:   &testutil.Reports{},
		Alerts:    &testutil.Alerts{},
		SMSAlerts: &testutil.SMSAlerts{},
		AlertFeed: &testutil.AlertFeed{},
		SMS:       &testutil.SMSSender{},
		Hasher:    testutil.Hasher{},
		Tokens:    tokens,
		Clock:     clock.Now,
	})
	metrics := NewMetrics(prometheus.NewRegistry())
	return &routerFixture{
		handler: NewRouter(NewHandler(svc, WithMetrics(metrics))),
		users:   users,
		clock:   clock,
		tokens:  tokens,
		metrics: metrics,
	}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func (f *routerFixture) signupAndLogin(t *testing.T, email, role string) string {
	t.Helper()
	rec, _ := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Test", "email": email, "password": "pw", "region": "North", "role": role,
		"phone": "5550100",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status %d: %s", rec.Code, rec.Body.String())
	}
	rec, body := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response")
	}
	return token
}

func assertResponse(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if message != "" && body["message"] != message {
		t.Fatalf("expected message %q, got %v", message, body["message"])
	}
}

func TestSignupContract(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec, body := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Asha", "email": "a@x.com", "password": "pw1", "region": "North",
	})
	assertResponse(t, rec, body, http.StatusCreated, "User registered successfully")
	if body["success"] != true {
		t.Fatalf("expected success flag, got %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "a@x.com" || user["role"] != "user" || user["region"] != "North" {
		t.Fatalf("unexpected user: %v", user)
	}
	if _, ok := user["password"]; ok {
		t.Fatalf("response must not expose password digest")
	}

	rec, body = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Asha", "email": "a@x.com", "password": "pw1", "region": "North",
	})
	assertResponse(t, rec, body, http.StatusBadRequest, "Email already registered")

	rec, body = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Asha", "email": "b@x.com", "password": "pw1",
	})
	assertResponse(t, rec, body, http.StatusBadRequest, "All required fields must be filled")

	rec, body = f.do(t, http.MethodPost, "/api/auth/signup", "", nil)
	assertResponse(t, rec, body, http.StatusBadRequest, "All required fields must be filled")

	rec, body = f.do(t, http.MethodPost, "/api/auth/signup", "", "{not json")
	assertResponse(t, rec, body, http.StatusBadRequest, "Invalid request body")
}

func TestLoginContract(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	token := f.signupAndLogin(t, "a@x.com", "")
	claims, err := f.tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token should verify: %v", err)
	}
	if claims.Email != "a@x.com" || claims.ExpiresAt.Sub(claims.IssuedAt) != 24*time.Hour {
		t.Fatalf("unexpected claims %+v", claims)
	}

	cases := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{name: "wrong password", body: map[string]any{"email": "a@x.com", "password": "bad"}, status: http.StatusUnauthorized, message: "Invalid password"},
		{name: "unknown user", body: map[string]any{"email": "zz@x.com", "password": "pw"}, status: http.StatusBadRequest, message: "User not found"},
		{name: "missing password", body: map[string]any{"email": "a@x.com"}, status: http.StatusBadRequest, message: "Missing credentials"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec, body := f.do(t, http.MethodPost, "/api/auth/login", "", tc.body)
			assertResponse(t, rec, body, tc.status, tc.message)
			if _, ok := body["token"]; ok {
				t.Fatalf("failed login must not return a token")
			}
		})
	}
}

func TestSessionVerificationMiddleware(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	token := f.signupAndLogin(t, "me@x.com", "")

	other, err := security.NewHMACTokenService([]byte("different-secret"), f.clock.Now)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	foreign, err := other.Issue(1, "me@x.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	rec, body := f.do(t, http.MethodGet, "/api/profile/me", token, nil)
	assertResponse(t, rec, body, http.StatusOK, "")
	user, _ := body["user"].(map[string]any)
	if user["email"] != "me@x.com" {
		t.Fatalf("unexpected profile: %v", body)
	}
	if _, ok := user["profile_image"]; ok {
		t.Fatalf("profile_image must be omitted without a profile row: %v", user)
	}

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "no header", header: "", status: http.StatusUnauthorized, message: "Access denied, no token provided"},
		{name: "basic scheme", header: "Basic abc", status: http.StatusUnauthorized, message: "Access denied, no token provided"},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized, message: "Access denied, no token provided"},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusUnauthorized, message: "Access denied, no token provided"},
		{name: "uppercase scheme", header: "BEARER " + token, status: http.StatusUnauthorized, message: "Access denied, no token provided"},
		{name: "garbage", header: "Bearer garbage", status: http.StatusForbidden, message: "Invalid or expired token"},
		{name: "tampered", header: "Bearer " + tampered, status: http.StatusForbidden, message: "Invalid or expired token"},
		{name: "foreign secret", header: "Bearer " + foreign, status: http.StatusForbidden, message: "Invalid or expired token"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			assertResponse(t, rec, body, tc.status, tc.message)
		})
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	token := f.signupAndLogin(t, "exp@x.com", "")
	f.clock.Advance(25 * time.Hour)

	rec, body := f.do(t, http.MethodGet, "/api/profile/me", token, nil)
	assertResponse(t, rec, body, http.StatusForbidden, "Invalid or expired token")
}

func TestNoneAlgorithmRejected(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":   "1",
		"email": "x@x.com",
		"role":  "admin",
		"exp":   f.clock.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	rec, body := f.do(t, http.MethodGet, "/api/admin/users", raw, nil)
	assertResponse(t, rec, body, http.StatusForbidden, "Invalid or expired token")
}

func TestAdminGate(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	userToken := f.signupAndLogin(t, "user@x.com", "")
	adminToken := f.signupAndLogin(t, "admin@x.com", "admin")

	rec, body := f.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	assertResponse(t, rec, body, http.StatusForbidden, "Access denied")

	rec, body = f.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assertResponse(t, rec, body, http.StatusUnauthorized, "Access denied, no token provided")

	rec, body = f.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	assertResponse(t, rec, body, http.StatusOK, "")
	users, _ := body["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", body["users"])
	}
	first, _ := users[0].(map[string]any)
	if first["email"] != "user@x.com" {
		t.Fatalf("expected id ordering, got %v", users)
	}

	rec, body = f.do(t, http.MethodDelete, "/api/admin/user/abc", adminToken, nil)
	assertResponse(t, rec, body, http.StatusBadRequest, "Invalid id")

	rec, body = f.do(t, http.MethodDelete, "/api/admin/user/1", userToken, nil)
	assertResponse(t, rec, body, http.StatusForbidden, "Access denied")

	rec, body = f.do(t, http.MethodDelete, "/api/admin/user/1", adminToken, nil)
	assertResponse(t, rec, body, http.StatusOK, "User deleted successfully")

	rec, body = f.do(t, http.MethodDelete, "/api/admin/user/1", adminToken, nil)
	assertResponse(t, rec, body, http.StatusNotFound, "User not found")
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)
	gate := h.requireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("gate must not admit a request without claims")
	}))
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestProfileRoutes(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	token := f.signupAndLogin(t, "p@x.com", "")

	rec, body := f.do(t, http.MethodPut, "/api/profile/update", token, map[string]any{
		"phone": "5550199", "location": "Camp", "region": "South", "emergency_contact": "5550000",
	})
	assertResponse(t, rec, body, http.StatusOK, "Profile updated successfully")

	rec, body = f.do(t, http.MethodGet, "/api/profile/me", token, nil)
	assertResponse(t, rec, body, http.StatusOK, "")
	user, _ := body["user"].(map[string]any)
	if user["region"] != "South" || user["emergency_contact"] != "5550000" {
		t.Fatalf("update not visible: %v", user)
	}

	rec, body = f.do(t, http.MethodDelete, "/api/profile/delete", token, nil)
	assertResponse(t, rec, body, http.StatusOK, "User deleted successfully")

	rec, body = f.do(t, http.MethodGet, "/api/profile/me", token, nil)
	assertResponse(t, rec, body, http.StatusNotFound, "User not found")
}

func TestAlertAndSMSRoutes(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/alerts/add-alert", "", map[string]any{"disasterType": "Flood"})
	assertResponse(t, rec, body, http.StatusBadRequest, "Missing required fields")

	rec, body = f.do(t, http.MethodPost, "/api/alerts/add-alert", "", map[string]any{
		"disasterType": "Flood", "location": "Delta", "alertMessage": "Evacuate", "latitude": 10.5, "longitude": 76.2,
	})
	assertResponse(t, rec, body, http.StatusCreated, "Alert added successfully")
	data, _ := body["data"].(map[string]any)
	if data["status"] != "Active" || data["disaster_type"] != "Flood" {
		t.Fatalf("unexpected alert data: %v", data)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/alerts/get-alerts", "", nil)
	var alerts []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil || len(alerts) != 1 {
		t.Fatalf("expected one alert, got %s (%v)", rec.Body.String(), err)
	}

	rec, body = f.do(t, http.MethodPost, "/api/sms/send-sms", "", map[string]any{"message": "Go"})
	assertResponse(t, rec, body, http.StatusBadRequest, "Missing required fields: disasterType or message")

	rec, body = f.do(t, http.MethodPost, "/api/sms/send-sms", "", map[string]any{"disasterType": "Flood", "message": "Go"})
	assertResponse(t, rec, body, http.StatusCreated, "SMS alert recorded successfully (simulated send).")

	rec, _ = f.do(t, http.MethodGet, "/api/sms/history", "", nil)
	var history []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil || len(history) != 1 {
		t.Fatalf("expected one sms alert, got %s (%v)", rec.Body.String(), err)
	}
	if history[0]["sent_to_all"] != true {
		t.Fatalf("expected sent_to_all, got %v", history[0])
	}
}

func TestReportRoutes(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/report/reports", "", map[string]any{
		"user_id": 3, "location": "Town", "disaster_type": "Quake", "description": "Cracks",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = f.do(t, http.MethodGet, "/api/report/reports/3", "", nil)
	var reports []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil || len(reports) != 1 {
		t.Fatalf("expected one report, got %s (%v)", rec.Body.String(), err)
	}

	rec, body := f.do(t, http.MethodGet, "/api/report/reports/x", "", nil)
	assertResponse(t, rec, body, http.StatusBadRequest, "Invalid user_id")
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	assertResponse(t, rec, body, http.StatusOK, "ok")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}

	f.signupAndLogin(t, "m@x.com", "")
	if got := promtestutil.ToFloat64(f.metrics.AuthOutcomes.WithLabelValues("login", "success")); got != 1 {
		t.Fatalf("expected one successful login, got %v", got)
	}
	if got := promtestutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues(http.MethodPost, "/api/auth/signup", "201")); got != 1 {
		t.Fatalf("expected signup request counted by route, got %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK || !strings.Contains(out.Body.String(), "disasterline_auth_outcomes_total") {
		t.Fatalf("metrics endpoint missing auth counter: %d", out.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}
}

func TestMapDomainError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "validation", err: domain.NewClientError(domain.ErrValidation, "Missing credentials"), status: 400, msg: "Missing credentials"},
		{name: "duplicate", err: domain.ErrDuplicateEmail, status: 400, msg: "Email already registered"},
		{name: "user not found", err: domain.ErrUserNotFound, status: 400, msg: "User not found"},
		{name: "invalid password", err: domain.ErrInvalidPassword, status: 401, msg: "Invalid password"},
		{name: "missing token", err: domain.ErrTokenMissing, status: 401, msg: "Access denied, no token provided"},
		{name: "invalid token", err: domain.ErrTokenInvalid, status: 403, msg: "Invalid or expired token"},
		{name: "forbidden", err: domain.ErrForbidden, status: 403, msg: "Access denied"},
		{name: "store", err: domain.StoreFailure("x", http.ErrHandlerTimeout), status: 500, msg: "Server error"},
	}
	for _, tc := range cases {
		status, _, msg := mapDomainError(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Fatalf("%s: got %d %q, want %d %q", tc.name, status, msg, tc.status, tc.msg)
		}
	}
}
