package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func expectJobLifecycle(mock pgxmock.PgxPoolIface, sent, failed int) {
	mock.ExpectExec(`INSERT INTO relay.jobs`).
		WithArgs(pgxmock.AnyArg(), StatusPending, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE relay.jobs SET`).
		WithArgs(pgxmock.AnyArg(), StatusProcessing, 0, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE relay.jobs SET`).
		WithArgs(pgxmock.AnyArg(), StatusCompleted, sent, failed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}

func payloads(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(`{"domain":"acme.com"}`)
	}
	return out
}

func TestDispatch_DeliversAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	expectJobLifecycle(mock, 3, 0)

	var got atomic.Int32
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Add(1)
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "sekrit", 1000, 1, 0, NewJobStore(mock))
	job, err := d.Dispatch(context.Background(), payloads(3))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 3, job.Sent)
	assert.Equal(t, 0, job.Failed)
	assert.Equal(t, int32(3), got.Load())
	assert.Equal(t, "Bearer sekrit", auth.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_FailureIsolated(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	expectJobLifecycle(mock, 2, 1)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "", 1000, 1, 0, NewJobStore(mock))
	job, err := d.Dispatch(context.Background(), payloads(3))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 2, job.Sent)
	assert.Equal(t, 1, job.Failed)
	assert.Equal(t, int32(3), calls.Load(), "a failed delivery never blocks the rest")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_CancellationStopsBetweenDeliveries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO relay.jobs`).
		WithArgs(pgxmock.AnyArg(), StatusPending, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE relay.jobs SET`).
		WithArgs(pgxmock.AnyArg(), StatusProcessing, 0, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// Final update persists partial progress in processing state.
	mock.ExpectExec(`UPDATE relay.jobs SET`).
		WithArgs(pgxmock.AnyArg(), StatusProcessing, 1, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel() // cancel after the first delivery lands
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "", 1000, 1, 0, NewJobStore(mock))
	job, err := d.Dispatch(ctx, payloads(3))
	require.Error(t, err)

	assert.Equal(t, 1, job.Sent)
	assert.Equal(t, StatusProcessing, job.Status)
}

func TestNewDispatcher_ConfiguresLimiterAndTimeout(t *testing.T) {
	d := NewDispatcher("http://example.com", "", 5, 3, 10*time.Second, nil)
	assert.Equal(t, float64(5), float64(d.limiter.Limit()))
	assert.Equal(t, 3, d.limiter.Burst())
	assert.Equal(t, 10*time.Second, d.client.Timeout)

	// Zero values fall back to safe defaults.
	d = NewDispatcher("http://example.com", "", 0, 0, 0, nil)
	assert.Equal(t, float64(1), float64(d.limiter.Limit()))
	assert.Equal(t, 1, d.limiter.Burst())
	assert.Equal(t, 30*time.Second, d.client.Timeout)
}

func TestJobStore_GetAbsentIsNil(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, status, total, sent, failed`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "total", "sent", "failed", "created_at", "updated_at"}))

	store := NewJobStore(mock)
	job, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, job)
}
