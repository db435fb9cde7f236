package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/in4everyall/tennisclub-league/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func identityHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		license, err := GetLicenseFromContext(r.Context())
		if err != nil {
			t.Errorf("GetLicenseFromContext() unexpected error: %v", err)
		}
		role, err := GetRoleFromContext(r.Context())
		if err != nil {
			t.Errorf("GetRoleFromContext() unexpected error: %v", err)
		}
		w.Header().Set("X-License", license)
		w.Header().Set("X-Role", string(role))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{
		"license": "L-100",
		"role":    "PLAYER",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"license": "L-100", "role": "PLAYER"}), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"license": "L-100", "role": "PLAYER", "exp": time.Now().Add(-time.Hour).Unix()}), wantStatus: http.StatusUnauthorized},
		{name: "no license", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "PLAYER"}), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(testSecret)(identityHandler(t)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent && rec.Header().Get("X-License") != "L-100" {
				t.Errorf("license = %q, want L-100", rec.Header().Get("X-License"))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		role       models.UserRole
		anonymous  bool
		wantStatus int
	}{
		{name: "admin", role: models.RoleAdmin, wantStatus: http.StatusOK},
		{name: "player", role: models.RolePlayer, wantStatus: http.StatusForbidden},
		{name: "anonymous", anonymous: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if !tt.anonymous {
				req = req.WithContext(WithClaims(req.Context(), "L-1", tt.role))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetRoleFromContextRejectsUnknownRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithClaims(req.Context(), "L-1", models.UserRole("ORGANIZER"))
	if _, err := GetRoleFromContext(ctx); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestAuthenticateWebSocketQueryToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"license": "L-7", "role": "PLAYER"})
	h := Authenticate(testSecret)(identityHandler(t))

	upgrade := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		return req
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upgrade("/ws/phases/2025-1?access_token="+token))
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-License") != "L-7" {
		t.Fatalf("upgrade with query token: status = %d, license = %q", rec.Code, rec.Header().Get("X-License"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upgrade("/ws/phases/2025-1"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("upgrade without token: status = %d, want 401", rec.Code)
	}

	// plain requests must use the header
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/matches/me?access_token="+token, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("query token on a plain request: status = %d, want 401", rec.Code)
	}
}
