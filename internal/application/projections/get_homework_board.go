package projections

import (
	"context"
	"log/slog"
	"time"

	"slate/internal/domain/homework"
)

// HomeworkStoreForProjection defines the read surface needed by this projection.
type HomeworkStoreForProjection interface {
	List(ctx context.Context) ([]homework.Homework, error)
}

// HomeworkBoard is the read model behind the homework admin screen.
type HomeworkBoard struct {
	All             []homework.Homework
	ForSelectedDate []homework.Homework
	SelectedDate    time.Time
	SelectedLabel   string

	TodayCount int
	TotalCount int

	// Completion tracking is not part of the model yet; both counters
	// render as zero.
	PendingCount   int
	CompletedCount int
}

// HomeworkBoardDeps holds dependencies for QueryHomeworkBoard.
type HomeworkBoardDeps struct {
	HomeworkStore HomeworkStoreForProjection
}

// QueryHomeworkBoard assembles the homework screen read model. Records come
// back newest assigned date first. A store read failure degrades to an empty
// board rather than an error page.
// POST: Board lists are never nil
func QueryHomeworkBoard(ctx context.Context, deps HomeworkBoardDeps, selectedDate, now time.Time) HomeworkBoard {
	board := HomeworkBoard{
		All:             []homework.Homework{},
		ForSelectedDate: []homework.Homework{},
		SelectedDate:    selectedDate,
		SelectedLabel:   RelativeDateLabel(selectedDate, now),
	}

	all, err := deps.HomeworkStore.List(ctx)
	if err != nil {
		slog.Error("projection_error", "projection", "homework_board", "error", err)
		return board
	}

	for _, hw := range all {
		board.All = append(board.All, hw)
		if hw.IsAssignedOn(selectedDate) {
			board.ForSelectedDate = append(board.ForSelectedDate, hw)
		}
		if hw.IsAssignedOn(now) {
			board.TodayCount++
		}
	}
	board.TotalCount = len(board.All)
	return board
}

// RelativeDateLabel renders a date as Today, Yesterday or Tomorrow relative
// to now, falling back to the full weekday form for anything further away.
func RelativeDateLabel(t, now time.Time) string {
	switch {
	case homework.SameDate(t, now):
		return "Today"
	case homework.SameDate(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	case homework.SameDate(t, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return t.Format("Monday, 2 January 2006")
	}
}
