package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"slate/internal/adapters/http/middleware"
	"slate/internal/application/orchestrators"
	"slate/internal/application/projections"
	"slate/internal/domain/homework"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

const templatesDir = "internal/adapters/http/templates"

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	email := ""
	if ok {
		role = sess.Role
		email = sess.Email
	}

	funcMap := template.FuncMap{
		"currentRole":  func() string { return role },
		"currentEmail": func() string { return email },
		"isLoggedIn":   func() bool { return role != "" },
		"csrfToken":    func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"dateValue": func(t time.Time) string { return t.Format(homework.DateLayout) },
		"dateLabel": func(t time.Time) string { return projections.RelativeDateLabel(t, timeNow()) },
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// requireAdmin checks the session for admin role and returns the session.
// Returns false if the request should not proceed.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return middleware.Session{}, false
	}
	if !middleware.IsAdmin(r.Context()) {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role, "required", "admin")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// handleIndex redirects the root path to the homework screen.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/homework", http.StatusSeeOther)
}

// handleHomework handles GET (screen) and POST (intent dispatch) for /homework
func handleHomework(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if r.Method == "GET" {
		now := timeNow()
		selectedDate := now
		if raw := r.URL.Query().Get("date"); raw != "" {
			if parsed, err := homework.ParseDate(raw); err == nil {
				selectedDate = parsed
			}
		}

		board := projections.QueryHomeworkBoard(ctx, projections.HomeworkBoardDeps{
			HomeworkStore: stores.HomeworkStore,
		}, selectedDate, now)

		var editing *homework.Homework
		if editID := r.URL.Query().Get("edit"); editID != "" {
			for i := range board.All {
				if board.All[i].ID == editID {
					editing = &board.All[i]
					break
				}
			}
		}

		renderTemplate(w, r, "homework.html", map[string]any{
			"Board":        board,
			"SelectedDate": selectedDate.Format(homework.DateLayout),
			"Editing":      editing,
			"ShowNew":      r.URL.Query().Get("new") == "1" && editing == nil,
			"CSRFToken":    csrf.Token(r),
		})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		switch r.FormValue("intent") {
		case "create":
			input := orchestrators.CreateHomeworkInput{
				Subject:      r.FormValue("subject"),
				Description:  r.FormValue("description"),
				AssignedDate: r.FormValue("assignedDate"),
			}
			deps := orchestrators.CreateHomeworkDeps{
				HomeworkStore: stores.HomeworkStore,
				GenerateID:    generateID,
				Now:           timeNow,
				Email:         emailSender,
				NotifyTo:      notifyToAddress,
			}
			if _, err := orchestrators.ExecuteCreateHomework(ctx, input, deps); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

		case "update":
			input := orchestrators.UpdateHomeworkInput{
				HomeworkID:   r.FormValue("homeworkId"),
				Subject:      r.FormValue("subject"),
				Description:  r.FormValue("description"),
				AssignedDate: r.FormValue("assignedDate"),
			}
			deps := orchestrators.UpdateHomeworkDeps{
				HomeworkStore: stores.HomeworkStore,
				Now:           timeNow,
			}
			if _, err := orchestrators.ExecuteUpdateHomework(ctx, input, deps); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

		case "delete":
			input := orchestrators.DeleteHomeworkInput{
				HomeworkID: r.FormValue("homeworkId"),
			}
			deps := orchestrators.DeleteHomeworkDeps{
				HomeworkStore: stores.HomeworkStore,
			}
			if err := orchestrators.ExecuteDeleteHomework(ctx, input, deps); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

		default:
			http.Error(w, "Invalid action", http.StatusBadRequest)
			return
		}

		http.Redirect(w, r, "/homework", http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/homework", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{
			"CSRFToken": csrf.Token(r),
		})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.LoginInput{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		deps := orchestrators.LoginDeps{
			AccountStore: stores.AccountStore,
		}

		acct, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
		if err != nil {
			renderTemplate(w, r, "login.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"Error":     err.Error(),
			})
			return
		}

		token, err := sessions.Create(acct.ID, acct.Email, acct.Role)
		if err != nil {
			internalError(w, err)
			return
		}

		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, "/homework", http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie("slate_session")
	if err == nil {
		sessions.Delete(cookie.Value)
	}

	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handlePerf handles GET /api/perf, an admin-only JSON diagnostics endpoint.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	minutes := 60
	if m := r.URL.Query().Get("minutes"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perfCollector.Snapshot(since, 10))
}
