package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"slate/internal/adapters/email"
	"slate/internal/domain/homework"
)

// HomeworkStoreForOrchestrator defines the store interface needed by homework orchestrators.
type HomeworkStoreForOrchestrator interface {
	Create(ctx context.Context, hw homework.Homework) error
	Update(ctx context.Context, hw homework.Homework) error
	Delete(ctx context.Context, id string) error
}

// ErrHomeworkIDRequired is returned when an update submission omits the record id.
var ErrHomeworkIDRequired = errors.New("homework ID is required")

// --- Create Homework ---

// CreateHomeworkInput carries input for the create homework orchestrator.
// AssignedDate is the raw YYYY-MM-DD form value.
type CreateHomeworkInput struct {
	Subject      string
	Description  string
	AssignedDate string
}

// CreateHomeworkDeps holds dependencies for CreateHomework.
type CreateHomeworkDeps struct {
	HomeworkStore HomeworkStoreForOrchestrator
	GenerateID    func() string
	Now           func() time.Time

	// Email is optional; when set together with NotifyTo, a summary email
	// is sent after a successful create. Send failures never fail the request.
	Email    email.Sender
	NotifyTo string
}

// ExecuteCreateHomework creates a new homework record.
// PRE: Subject, Description, AssignedDate must be non-empty; AssignedDate must be YYYY-MM-DD
// POST: Record persisted with generated ID and created_at == updated_at
func ExecuteCreateHomework(ctx context.Context, input CreateHomeworkInput, deps CreateHomeworkDeps) (homework.Homework, error) {
	date, err := requireFields(input.Subject, input.Description, input.AssignedDate)
	if err != nil {
		return homework.Homework{}, err
	}

	now := deps.Now()
	hw := homework.Homework{
		ID:           deps.GenerateID(),
		Subject:      input.Subject,
		Description:  input.Description,
		AssignedDate: date,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := hw.Validate(); err != nil {
		return homework.Homework{}, err
	}

	if err := deps.HomeworkStore.Create(ctx, hw); err != nil {
		return homework.Homework{}, err
	}

	slog.Info("homework_event", "event", "homework_created", "homework_id", hw.ID, "subject", hw.Subject, "assigned_date", input.AssignedDate)
	notifyCreated(ctx, deps, hw)
	return hw, nil
}

// --- Update Homework ---

// UpdateHomeworkInput carries input for the update homework orchestrator.
type UpdateHomeworkInput struct {
	HomeworkID   string
	Subject      string
	Description  string
	AssignedDate string
}

// UpdateHomeworkDeps holds dependencies for UpdateHomework.
type UpdateHomeworkDeps struct {
	HomeworkStore HomeworkStoreForOrchestrator
	Now           func() time.Time
}

// ExecuteUpdateHomework overwrites subject, description and assigned date for an id.
// The write is a single unconditional call: no version check, last write wins.
// id and created_at are never modified.
// PRE: HomeworkID, Subject, Description, AssignedDate must be non-empty
// POST: Record fields updated, updated_at refreshed
func ExecuteUpdateHomework(ctx context.Context, input UpdateHomeworkInput, deps UpdateHomeworkDeps) (homework.Homework, error) {
	if input.HomeworkID == "" {
		return homework.Homework{}, ErrHomeworkIDRequired
	}
	date, err := requireFields(input.Subject, input.Description, input.AssignedDate)
	if err != nil {
		return homework.Homework{}, err
	}

	hw := homework.Homework{
		ID:           input.HomeworkID,
		Subject:      input.Subject,
		Description:  input.Description,
		AssignedDate: date,
		UpdatedAt:    deps.Now(),
	}

	if err := hw.Validate(); err != nil {
		return homework.Homework{}, err
	}

	if err := deps.HomeworkStore.Update(ctx, hw); err != nil {
		return homework.Homework{}, err
	}

	slog.Info("homework_event", "event", "homework_updated", "homework_id", hw.ID, "subject", hw.Subject, "assigned_date", input.AssignedDate)
	return hw, nil
}

// --- Delete Homework ---

// DeleteHomeworkInput carries input for the delete homework orchestrator.
type DeleteHomeworkInput struct {
	HomeworkID string
}

// DeleteHomeworkDeps holds dependencies for DeleteHomework.
type DeleteHomeworkDeps struct {
	HomeworkStore HomeworkStoreForOrchestrator
}

// ExecuteDeleteHomework removes a homework record.
// The identifier is passed to the store without a presence check; deleting an
// unknown or empty id is a no-op at the store and succeeds here.
// POST: Record with the given id no longer exists
func ExecuteDeleteHomework(ctx context.Context, input DeleteHomeworkInput, deps DeleteHomeworkDeps) error {
	if err := deps.HomeworkStore.Delete(ctx, input.HomeworkID); err != nil {
		return err
	}

	slog.Info("homework_event", "event", "homework_deleted", "homework_id", input.HomeworkID)
	return nil
}

// requireFields checks the three required submission fields and parses the date.
func requireFields(subject, description, assignedDate string) (time.Time, error) {
	if subject == "" {
		return time.Time{}, homework.ErrEmptySubject
	}
	if description == "" {
		return time.Time{}, homework.ErrEmptyDescription
	}
	if assignedDate == "" {
		return time.Time{}, homework.ErrEmptyDate
	}
	return homework.ParseDate(assignedDate)
}

// notifyCreated sends the optional creation notification email.
// Subject and description are admin input; escape them before they land in
// the HTML body.
func notifyCreated(ctx context.Context, deps CreateHomeworkDeps, hw homework.Homework) {
	if deps.Email == nil || deps.NotifyTo == "" {
		return
	}
	_, err := deps.Email.Send(ctx, email.SendRequest{
		To:      []string{deps.NotifyTo},
		Subject: fmt.Sprintf("New homework: %s", hw.Subject),
		HTML: fmt.Sprintf("<p><strong>%s</strong> (due %s)</p><p>%s</p>",
			html.EscapeString(hw.Subject),
			hw.AssignedDate.Format(homework.DateLayout),
			html.EscapeString(hw.Description)),
	})
	if err != nil {
		slog.Warn("homework_notify_failed", "homework_id", hw.ID, "error", err)
	}
}
