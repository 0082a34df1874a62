package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks for one extraction run of a document on behalf of its owner.
type Job struct {
	DocumentID  uuid.UUID
	UserID      string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
