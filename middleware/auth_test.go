package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthenticateValidToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"company_id": 42,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	var gotCompanyID int
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetCompanyIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("GetCompanyIDFromContext: %v", err)
		}
		gotCompanyID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/tournaments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if gotCompanyID != 42 {
		t.Errorf("company id %d, want 42", gotCompanyID)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"company_id": 42,
		"exp":        time.Now().Add(-time.Hour).Unix(),
	})
	missingCompany := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired", "Bearer " + expired},
		{"missing company claim", "Bearer " + missingCompany},
	}

	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with an invalid token")
	}))

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tournaments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status %d, want 401", rec.Code)
			}
		})
	}
}

func TestGetCompanyIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := GetCompanyIDFromContext(req.Context()); err == nil {
		t.Fatal("expected error for missing company id")
	}
}
