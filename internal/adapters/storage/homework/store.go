package homework

import (
	"context"

	domain "slate/internal/domain/homework"
)

// Store persists Homework state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Homework, error)
	List(ctx context.Context) ([]domain.Homework, error)
	Create(ctx context.Context, hw domain.Homework) error
	Update(ctx context.Context, hw domain.Homework) error
	Delete(ctx context.Context, id string) error
}
