package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"slate/internal/adapters/http/middleware"
	accountDomain "slate/internal/domain/account"
	homeworkDomain "slate/internal/domain/homework"
)

var adminSession = middleware.Session{
	AccountID: "acct-admin",
	Email:     "admin@example.com",
	Role:      "admin",
	CreatedAt: time.Now(),
}

var viewerSession = middleware.Session{
	AccountID: "acct-viewer",
	Email:     "viewer@example.com",
	Role:      "viewer",
	CreatedAt: time.Now(),
}

// --- Mock homework store ---

type mockHomeworkStore struct {
	records map[string]homeworkDomain.Homework

	createCalls int
	updateCalls int
	deleteCalls int
	lastDeleted string

	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newMockHomeworkStore() *mockHomeworkStore {
	return &mockHomeworkStore{records: make(map[string]homeworkDomain.Homework)}
}

func (m *mockHomeworkStore) GetByID(_ context.Context, id string) (homeworkDomain.Homework, error) {
	if hw, ok := m.records[id]; ok {
		return hw, nil
	}
	return homeworkDomain.Homework{}, fmt.Errorf("not found: %s", id)
}

func (m *mockHomeworkStore) List(_ context.Context) ([]homeworkDomain.Homework, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]homeworkDomain.Homework, 0, len(m.records))
	for _, hw := range m.records {
		out = append(out, hw)
	}
	return out, nil
}

func (m *mockHomeworkStore) Create(_ context.Context, hw homeworkDomain.Homework) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.records[hw.ID] = hw
	return nil
}

func (m *mockHomeworkStore) Update(_ context.Context, hw homeworkDomain.Homework) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.records[hw.ID]
	if ok {
		hw.CreatedAt = existing.CreatedAt
	}
	m.records[hw.ID] = hw
	return nil
}

func (m *mockHomeworkStore) Delete(_ context.Context, id string) error {
	m.deleteCalls++
	m.lastDeleted = id
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.records, id)
	return nil
}

// --- Mock account store ---

type mockAccountStore struct {
	accounts map[string]accountDomain.Account
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]accountDomain.Account)}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (accountDomain.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return accountDomain.Account{}, fmt.Errorf("not found: %s", id)
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (accountDomain.Account, error) {
	if a, ok := m.accounts[email]; ok {
		return a, nil
	}
	return accountDomain.Account{}, fmt.Errorf("not found: %s", email)
}

func (m *mockAccountStore) Save(_ context.Context, value accountDomain.Account) error {
	m.accounts[value.Email] = value
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

func newTestStores() (*Stores, *mockHomeworkStore) {
	hw := newMockHomeworkStore()
	return &Stores{
		AccountStore:  newMockAccountStore(),
		HomeworkStore: hw,
	}, hw
}

// formPost builds an authenticated form POST to /homework.
func formPost(sess middleware.Session, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/homework", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(middleware.ContextWithSession(req.Context(), sess))
}

func TestHandleHomework_CreateRedirects(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(adminSession, url.Values{
		"intent":       {"create"},
		"subject":      {"Maths"},
		"description":  {"Exercises 1-10"},
		"assignedDate": {"2025-03-12"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/homework" {
		t.Errorf("redirect location = %q, want /homework", loc)
	}
	if hw.createCalls != 1 {
		t.Errorf("expected 1 create call, got %d", hw.createCalls)
	}
}

func TestHandleHomework_CreateValidationError(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(adminSession, url.Values{
		"intent":       {"create"},
		"subject":      {""},
		"description":  {"Exercises 1-10"},
		"assignedDate": {"2025-03-12"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "subject") {
		t.Errorf("expected subject error in body, got: %s", rec.Body.String())
	}
	if hw.createCalls != 0 {
		t.Errorf("store must not be called on validation failure, got %d calls", hw.createCalls)
	}
}

func TestHandleHomework_UpdateRedirects(t *testing.T) {
	s, hw := newTestStores()
	stores = s
	hw.records["hw-1"] = homeworkDomain.Homework{ID: "hw-1", Subject: "Old"}

	req := formPost(adminSession, url.Values{
		"intent":       {"update"},
		"homeworkId":   {"hw-1"},
		"subject":      {"New subject"},
		"description":  {"New description"},
		"assignedDate": {"2025-03-13"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if hw.updateCalls != 1 {
		t.Errorf("expected 1 update call, got %d", hw.updateCalls)
	}
	if got := hw.records["hw-1"].Subject; got != "New subject" {
		t.Errorf("subject = %q, want New subject", got)
	}
}

func TestHandleHomework_UpdateMissingID(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(adminSession, url.Values{
		"intent":       {"update"},
		"subject":      {"New subject"},
		"description":  {"New description"},
		"assignedDate": {"2025-03-13"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusBadRequest)
	}
	if hw.updateCalls != 0 {
		t.Errorf("store must not be called without an id, got %d calls", hw.updateCalls)
	}
}

func TestHandleHomework_DeleteRedirects(t *testing.T) {
	s, hw := newTestStores()
	stores = s
	hw.records["hw-1"] = homeworkDomain.Homework{ID: "hw-1", Subject: "Maths"}

	req := formPost(adminSession, url.Values{
		"intent":     {"delete"},
		"homeworkId": {"hw-1"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if hw.deleteCalls != 1 || hw.lastDeleted != "hw-1" {
		t.Errorf("expected delete of hw-1, got %d calls, last %q", hw.deleteCalls, hw.lastDeleted)
	}
}

func TestHandleHomework_DeleteWithoutIDStillRedirects(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(adminSession, url.Values{
		"intent": {"delete"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete with empty id must succeed, got status=%d body=%s", rec.Code, rec.Body.String())
	}
	if hw.deleteCalls != 1 || hw.lastDeleted != "" {
		t.Errorf("expected pass-through delete call, got %d calls, last %q", hw.deleteCalls, hw.lastDeleted)
	}
}

func TestHandleHomework_InvalidIntent(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(adminSession, url.Values{
		"intent":  {"archive"},
		"subject": {"Maths"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "Invalid action") {
		t.Errorf("expected Invalid action message, got: %s", rec.Body.String())
	}
	if hw.createCalls+hw.updateCalls+hw.deleteCalls != 0 {
		t.Error("no store call expected for an unknown intent")
	}
}

func TestHandleHomework_StoreErrorSurfaces(t *testing.T) {
	s, hw := newTestStores()
	stores = s
	hw.createErr = errors.New("database is locked")

	req := formPost(adminSession, url.Values{
		"intent":       {"create"},
		"subject":      {"Maths"},
		"description":  {"Exercises 1-10"},
		"assignedDate": {"2025-03-12"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "database is locked") {
		t.Errorf("expected store error in body, got: %s", rec.Body.String())
	}
}

func TestHandleHomework_UnauthenticatedRedirectsToLogin(t *testing.T) {
	s, _ := newTestStores()
	stores = s

	req := httptest.NewRequest("GET", "/homework", nil)
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}
}

func TestHandleHomework_ViewerForbidden(t *testing.T) {
	s, hw := newTestStores()
	stores = s

	req := formPost(viewerSession, url.Values{
		"intent":       {"create"},
		"subject":      {"Maths"},
		"description":  {"d"},
		"assignedDate": {"2025-03-12"},
	})
	rec := httptest.NewRecorder()
	handleHomework(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusForbidden)
	}
	if hw.createCalls != 0 {
		t.Errorf("no store call expected for a viewer, got %d", hw.createCalls)
	}
}
