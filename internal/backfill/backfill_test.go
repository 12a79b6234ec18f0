package backfill

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeUpserts struct {
	companies map[string]string // domain -> description
	people    map[string]string // profile_url -> title
	resolved  map[string]string // origin|name -> domain
	err       error
}

func newFakeUpserts() *fakeUpserts {
	return &fakeUpserts{
		companies: map[string]string{},
		people:    map[string]string{},
		resolved:  map[string]string{},
	}
}

func (f *fakeUpserts) UpsertCompany(_ context.Context, domain string, d model.Company) (*model.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	if d.Description != nil {
		f.companies[domain] = *d.Description
	}
	return &model.Company{Domain: domain}, nil
}

func (f *fakeUpserts) UpsertPerson(_ context.Context, profileURL string, d model.Person) (*model.Person, error) {
	if d.Title != nil {
		f.people[profileURL] = *d.Title
	}
	return &model.Person{ProfileURL: profileURL}, nil
}

func (f *fakeUpserts) ResolveCustomerDomain(_ context.Context, originDomain, customerName, domain string) (bool, error) {
	f.resolved[originDomain+"|"+customerName] = domain
	return true, nil
}

func candidateRows(rows [][3]string) *pgxmock.Rows {
	out := pgxmock.NewRows([]string{"identity", "qualifier", "value"})
	for _, r := range rows {
		out.AddRow(r[0], r[1], r[2])
	}
	return out
}

func TestRun_CompanyDescriptionWaterfall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Priority source claims acme.com; the lower source offers acme.com again
	// plus a fresh identity.
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows([][3]string{{"acme.com", "", "Rich portfolio blurb."}}))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "acme.com").
		WillReturnRows(candidateRows(nil))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows([][3]string{
			{"acme.com", "", "Thin firmographic blurb."},
			{"globex.com", "", "Industrial conglomerate."},
		}))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "globex.com").
		WillReturnRows(candidateRows(nil))

	core := newFakeUpserts()
	r := New(mock, core)

	reports, err := r.Run(context.Background(), []Job{companyDescriptionJob}, Options{BatchSize: 100})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.Equal(t, 3, reports[0].Candidates)
	assert.Equal(t, 2, reports[0].Written)
	assert.Equal(t, 1, reports[0].Skipped, "claimed identity is skipped by the lower source")

	assert.Equal(t, "Rich portfolio blurb.", core.companies["acme.com"])
	assert.Equal(t, "Industrial conglomerate.", core.companies["globex.com"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SecondRunConvergesToZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Every target already filled: all sources come back empty immediately.
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows(nil))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows(nil))

	core := newFakeUpserts()
	r := New(mock, core)

	reports, err := r.Run(context.Background(), []Job{companyDescriptionJob}, Options{BatchSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].Candidates)
	assert.Equal(t, 0, reports[0].Written)
	assert.Empty(t, core.companies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_DryRunCountsWithoutWriting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows([][3]string{{"acme.com", "", "Blurb."}}))
	// Keyset pagination advances past acme.com even though nothing was written.
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "acme.com").
		WillReturnRows(candidateRows(nil))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows(nil))

	core := newFakeUpserts()
	r := New(mock, core)

	reports, err := r.Run(context.Background(), []Job{companyDescriptionJob}, Options{BatchSize: 100, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].Written)
	assert.Empty(t, core.companies, "dry run must not write")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_MaxBatchesCapsASource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Source one gets exactly one batch, then the run moves on.
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(1, "").
		WillReturnRows(candidateRows([][3]string{{"acme.com", "", "Blurb."}}))
	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(1, "").
		WillReturnRows(candidateRows([][3]string{{"globex.com", "", "Other."}}))

	core := newFakeUpserts()
	r := New(mock, core)

	reports, err := r.Run(context.Background(), []Job{companyDescriptionJob}, Options{BatchSize: 1, MaxBatches: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, reports[0].Written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_CustomerDomainInference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM core.customer_edges e`).
		WithArgs(100, "").
		WillReturnRows(candidateRows([][3]string{{"vendor.com", "Acme", "acme.com"}}))
	mock.ExpectQuery(`FROM core.customer_edges e`).
		WithArgs(100, "vendor.com|Acme").
		WillReturnRows(candidateRows(nil))

	core := newFakeUpserts()
	r := New(mock, core)

	reports, err := r.Run(context.Background(), []Job{customerDomainJob}, Options{BatchSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].Written)
	assert.Equal(t, "acme.com", core.resolved["vendor.com|Acme"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ApplyErrorAborts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM extracted.records r`).
		WithArgs(100, "").
		WillReturnRows(candidateRows([][3]string{{"acme.com", "", "Blurb."}}))

	core := newFakeUpserts()
	core.err = errors.New("connection reset")
	r := New(mock, core)

	_, err = r.Run(context.Background(), []Job{companyDescriptionJob}, Options{BatchSize: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestJobByName(t *testing.T) {
	j, ok := JobByName("person-title")
	require.True(t, ok)
	assert.Equal(t, "person-title", j.Name)

	_, ok = JobByName("nope")
	assert.False(t, ok)
}
