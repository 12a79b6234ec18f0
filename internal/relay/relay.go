// Package relay delivers canonical rows to an outbound webhook. Pacing uses
// a token bucket rather than fixed sleeps, so bursts after idle periods stay
// within the configured rate. Deliveries are isolated: one failed POST marks
// the row failed and the batch keeps going.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-warehouse/internal/db"
)

// Dispatcher posts payload batches to a webhook URL under a rate limit.
type Dispatcher struct {
	client  *http.Client
	limiter *rate.Limiter
	jobs    *JobStore
	url     string
	apiKey  string
}

// NewDispatcher creates a Dispatcher delivering at most perSecond requests
// per second with the given burst allowance. timeout bounds each POST.
// apiKey, when set, is sent as a bearer token.
func NewDispatcher(url, apiKey string, perSecond float64, burst int, timeout time.Duration, jobs *JobStore) *Dispatcher {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		jobs:    jobs,
		url:     url,
		apiKey:  apiKey,
	}
}

// Dispatch delivers each payload to the webhook and returns the finished job
// record. Cancellation stops between deliveries, never mid-request; the job
// keeps its counts so a poller sees how far the batch got.
func (d *Dispatcher) Dispatch(ctx context.Context, payloads []json.RawMessage) (*Job, error) {
	job, err := d.jobs.Create(ctx, len(payloads))
	if err != nil {
		return nil, err
	}
	job.Status = StatusProcessing
	if err := d.jobs.Update(ctx, job); err != nil {
		return job, err
	}

	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			_ = d.jobs.Update(context.WithoutCancel(ctx), job)
			return job, eris.Wrap(err, "relay: dispatch canceled")
		}
		if err := d.limiter.Wait(ctx); err != nil {
			_ = d.jobs.Update(context.WithoutCancel(ctx), job)
			return job, eris.Wrap(err, "relay: dispatch canceled")
		}

		if err := d.deliver(ctx, payload); err != nil {
			job.Failed++
			zap.L().Warn("relay: delivery failed",
				zap.String("job_id", job.ID),
				zap.Int("index", i),
				zap.Error(err),
			)
		} else {
			job.Sent++
		}
	}

	job.Status = StatusCompleted
	if err := d.jobs.Update(ctx, job); err != nil {
		return job, err
	}
	zap.L().Info("relay: job complete",
		zap.String("job_id", job.ID),
		zap.Int("sent", job.Sent),
		zap.Int("failed", job.Failed),
	)
	return job, nil
}

// deliver posts one payload. The request is deliberately detached from the
// job context: cancellation stops between deliveries, never mid-request, so
// a delivery the target already received is never recorded as failed. The
// client timeout bounds the request instead.
func (d *Dispatcher) deliver(ctx context.Context, payload json.RawMessage) error {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "relay: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "relay: post")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.New(fmt.Sprintf("relay: webhook returned %d", resp.StatusCode))
	}
	return nil
}

// CompaniesUpdatedSince selects canonical company rows touched after the
// given time, serialized for delivery.
func CompaniesUpdatedSince(ctx context.Context, pool db.Pool, since time.Time, limit int) ([]json.RawMessage, error) {
	rows, err := pool.Query(ctx,
		`SELECT to_jsonb(c) FROM core.companies c WHERE c.updated_at > $1 ORDER BY c.updated_at LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "relay: select companies")
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload json.RawMessage
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "relay: scan company")
		}
		out = append(out, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "relay: read companies")
	}
	return out, nil
}
