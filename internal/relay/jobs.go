package relay

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-warehouse/internal/db"
)

// Status values a relay job moves through. Transitions only go forward.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Job is the pollable record of one outbound delivery batch.
type Job struct {
	ID        string    `json:"id" db:"id"`
	Status    string    `json:"status" db:"status"`
	Total     int       `json:"total" db:"total"`
	Sent      int       `json:"sent" db:"sent"`
	Failed    int       `json:"failed" db:"failed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobStore persists relay jobs in the relay schema.
type JobStore struct {
	pool db.Pool
}

func NewJobStore(pool db.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// Create inserts a pending job sized for total deliveries.
func (s *JobStore) Create(ctx context.Context, total int) (*Job, error) {
	job := &Job{ID: uuid.NewString(), Status: StatusPending, Total: total}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO relay.jobs (id, status, total) VALUES ($1, $2, $3)`,
		job.ID, job.Status, job.Total,
	)
	if err != nil {
		return nil, eris.Wrap(err, "relay: create job")
	}
	return job, nil
}

// Update writes the job's current status and counters.
func (s *JobStore) Update(ctx context.Context, job *Job) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE relay.jobs SET status = $2, sent = $3, failed = $4, updated_at = now() WHERE id = $1`,
		job.ID, job.Status, job.Sent, job.Failed,
	)
	if err != nil {
		return eris.Wrapf(err, "relay: update job %s", job.ID)
	}
	return nil
}

// Get fetches one job by id. Returns nil when the job does not exist.
func (s *JobStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, total, sent, failed, created_at, updated_at FROM relay.jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.Status, &job.Total, &job.Sent, &job.Failed, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "relay: get job %s", id)
	}
	return &job, nil
}
