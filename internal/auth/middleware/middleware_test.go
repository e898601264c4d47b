package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/rbac"
)

func login(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	var out map[string]string
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec, out
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("test-secret")
	h := LoginHandler(a, Credentials{AdminUser: "root", AdminPassHash: string(hash), AllowLocal: true})

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantRole string
	}{
		{"admin", `{"username":"root","password":"s3cret"}`, 200, "admin"},
		{"admin wrong password", `{"username":"root","password":"root","role":"teacher"}`, 401, ""},
		{"local student", `{"username":"amy","password":"amy","role":"student"}`, 200, "student"},
		{"local admin role refused", `{"username":"amy","password":"amy","role":"admin"}`, 401, ""},
		{"mismatch", `{"username":"amy","password":"x","role":"student"}`, 401, ""},
		{"bad json", `{`, 400, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, out := login(t, h, c.body)
			if rec.Code != c.wantCode {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, c.wantCode, rec.Body.String())
			}
			if c.wantRole == "" {
				return
			}
			claims, err := a.Parse(out["access_token"])
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if claims.Role != c.wantRole {
				t.Errorf("role = %q, want %q", claims.Role, c.wantRole)
			}
		})
	}

	strict := LoginHandler(a, Credentials{AdminUser: "root", AdminPassHash: string(hash)})
	if rec, _ := login(t, strict, `{"username":"amy","password":"amy","role":"student"}`); rec.Code != 401 {
		t.Errorf("local login allowed when disabled: %d", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	serve := func(authz string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(""); code != http.StatusUnauthorized {
		t.Errorf("no header: %d", code)
	}
	other, _ := NewAuthService("other-secret").IssueJWT("eve", "admin")
	if code := serve("Bearer " + other); code != http.StatusUnauthorized {
		t.Errorf("foreign signature: %d", code)
	}

	expired := NewAuthService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	old, _ := expired.IssueJWT("amy", "student")
	if code := serve("Bearer " + old); code != http.StatusUnauthorized {
		t.Errorf("expired token: %d", code)
	}

	tok, err := a.IssueJWT("amy", "student")
	if err != nil {
		t.Fatal(err)
	}
	if code := serve("Bearer " + tok); code != http.StatusOK {
		t.Fatalf("valid token: %d", code)
	}
	if gotSub != "amy" || gotRole != "student" {
		t.Errorf("context = %q/%q", gotSub, gotRole)
	}
}
