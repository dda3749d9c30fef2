package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"slate/internal/adapters/http/middleware"
	accountDomain "slate/internal/domain/account"
)

func seedTestAdmin(t *testing.T, accounts *mockAccountStore, password string) {
	t.Helper()
	acct := accountDomain.Account{
		ID:        "acct-admin",
		Email:     "admin@example.com",
		Role:      accountDomain.RoleAdmin,
		CreatedAt: time.Now(),
	}
	if err := acct.SetPassword(password); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	accounts.accounts[acct.Email] = acct
}

func TestHandleLogin_SuccessSetsSessionCookie(t *testing.T) {
	s, _ := newTestStores()
	stores = s
	sessions = middleware.NewSessionStore()
	seedTestAdmin(t, s.AccountStore.(*mockAccountStore), "correct-horse-battery")

	form := url.Values{
		"email":    {"admin@example.com"},
		"password": {"correct-horse-battery"},
	}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handleLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/homework" {
		t.Errorf("redirect location = %q, want /homework", loc)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "slate_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected slate_session cookie to be set")
	}
	if _, ok := sessions.Get(sessionCookie.Value); !ok {
		t.Error("cookie token must resolve to a live session")
	}
}

func TestHandleLogout_ClearsSession(t *testing.T) {
	s, _ := newTestStores()
	stores = s
	sessions = middleware.NewSessionStore()

	token, err := sessions.Create("acct-admin", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "slate_session", Value: token})
	rec := httptest.NewRecorder()
	handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}
	if _, ok := sessions.Get(token); ok {
		t.Error("session must be deleted on logout")
	}
}
