package dataset

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/equipment-visualizer/backend/internal/config"
	"github.com/equipment-visualizer/backend/internal/metrics"
	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/equipment-visualizer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc   *Service
	repo  *testutil.MockRepository
	blobs *testutil.MockBlobStore
}

func newFixture(t *testing.T, mutate func(*config.RetentionConfig)) *fixture {
	t.Helper()
	retention := config.DefaultConfig().Retention
	if mutate != nil {
		mutate(&retention)
	}
	repo := testutil.NewMockRepository()
	blobs := testutil.NewMockBlobStore()
	renderer := report.NewRenderer(report.Options{ChartWidth: 300, ChartHeight: 200})
	svc := NewService(repo, blobs, renderer, retention, metrics.New(), zap.NewNop())

	var mu sync.Mutex
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return &fixture{svc: svc, repo: repo, blobs: blobs}
}

func (f *fixture) ingest(t *testing.T, owner, name, csv string) *IngestResult {
	t.Helper()
	res, err := f.svc.Ingest(context.Background(), owner, name, strings.NewReader(csv))
	require.NoError(t, err)
	return res
}

func TestIngest_Summary(t *testing.T) {
	f := newFixture(t, nil)

	res := f.ingest(t, "", "pv.csv", "Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Pump,10,1,300\nV1,Valve,20,2,310\n")

	s := res.Dataset.Summary
	assert.Equal(t, 2, s.TotalCount)
	assert.InDelta(t, 15.0, *s.Averages["Flowrate"], 1e-9)
	assert.Equal(t, map[string]int{"Pump": 1, "Valve": 1}, s.TypeDistribution)
	assert.Equal(t, 2, res.Table.Len())
	assert.Empty(t, res.Evicted)
	assert.True(t, f.blobs.Has(res.Dataset.RawKey))

	stored, err := f.repo.Get(context.Background(), res.Dataset.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "pv.csv", stored.Filename)
}

func TestIngest_MissingColumnStoresNothing(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Ingest(context.Background(), "", "bad.csv", strings.NewReader(testutil.MissingColumnCSV))

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Temperature"}, ve.Missing)
	assert.Contains(t, err.Error(), "Temperature")
	assert.Equal(t, 0, f.blobs.Count())
	n, _ := f.repo.Count(context.Background(), "")
	assert.Equal(t, 0, n)
}

func TestIngest_EmptyFilename(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Ingest(context.Background(), "", "  ", strings.NewReader(testutil.SampleCSV))
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestIngest_EvictsOldest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var first *IngestResult
	for i := 0; i < 5; i++ {
		res := f.ingest(t, "alice", fmt.Sprintf("f%d.csv", i), testutil.SampleCSV)
		if i == 0 {
			first = res
		}
	}

	res := f.ingest(t, "alice", "f5.csv", testutil.SampleCSV)
	require.Len(t, res.Evicted, 1)
	assert.Equal(t, first.Dataset.ID, res.Evicted[0].ID)
	assert.False(t, f.blobs.Has(first.Dataset.RawKey), "evicted raw file is removed")

	list, err := f.svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "f5.csv", list[0].Filename)
	assert.Equal(t, "f1.csv", list[4].Filename)
	assert.Equal(t, 5, f.blobs.Count())
}

func TestIngest_RejectMode(t *testing.T) {
	f := newFixture(t, func(r *config.RetentionConfig) {
		r.Mode = config.RetentionReject
		r.DefaultLimit = 2
	})

	f.ingest(t, "", "a.csv", testutil.SampleCSV)
	f.ingest(t, "", "b.csv", testutil.SampleCSV)

	_, err := f.svc.Ingest(context.Background(), "", "c.csv", strings.NewReader(testutil.SampleCSV))
	var le *models.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Limit)
	assert.Contains(t, err.Error(), "upload limit")
	assert.Equal(t, 2, f.blobs.Count())
}

func TestIngest_RepositoryFailureRemovesBlob(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.CreateErr = testutil.ErrInjected

	_, err := f.svc.Ingest(context.Background(), "", "a.csv", strings.NewReader(testutil.SampleCSV))
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Equal(t, 0, f.blobs.Count())
}

func TestIngest_BlobFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.blobs.SaveErr = testutil.ErrInjected

	_, err := f.svc.Ingest(context.Background(), "", "a.csv", strings.NewReader(testutil.SampleCSV))
	assert.ErrorIs(t, err, testutil.ErrInjected)
	n, _ := f.repo.Count(context.Background(), "")
	assert.Equal(t, 0, n)
}

func TestIngest_ConcurrentUploadsKeepLimit(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Ingest(context.Background(), "shared", fmt.Sprintf("c%d.csv", i), strings.NewReader(testutil.SampleCSV))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := f.repo.Count(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, f.blobs.Count())
}

func TestLimits(t *testing.T) {
	f := newFixture(t, func(r *config.RetentionConfig) {
		r.OwnerLimits = []config.OwnerLimit{{Owner: "lab", Limit: 3}}
	})
	ctx := context.Background()

	limit, err := f.svc.Limit(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, 3, limit)

	limit, err = f.svc.Limit(ctx, "someone")
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	for i := 0; i < 3; i++ {
		f.ingest(t, "lab", fmt.Sprintf("%d.csv", i), testutil.SampleCSV)
	}

	evicted, err := f.svc.SetLimit(ctx, "lab", 1)
	require.NoError(t, err)
	assert.Len(t, evicted, 2)

	list, err := f.svc.List(ctx, "lab")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2.csv", list[0].Filename)
	assert.Equal(t, 1, f.blobs.Count())

	_, err = f.svc.SetLimit(ctx, "lab", 0)
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
	_, err = f.svc.SetLimit(ctx, "lab", 1000)
	assert.ErrorAs(t, err, &ve)
}

func TestGet_OwnerScoped(t *testing.T) {
	f := newFixture(t, nil)
	res := f.ingest(t, "alice", "a.csv", testutil.SampleCSV)

	ds, table, err := f.svc.Get(context.Background(), "alice", res.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Dataset.ID, ds.ID)
	assert.Equal(t, 4, table.Len())

	_, _, err = f.svc.Get(context.Background(), "bob", res.Dataset.ID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.ingest(t, "", "a.csv", testutil.SampleCSV)
	_, err := f.svc.Report(ctx, "", res.Dataset.ID, report.DefaultSelection())
	require.NoError(t, err)
	require.Equal(t, 2, f.blobs.Count())

	require.NoError(t, f.svc.Delete(ctx, "", res.Dataset.ID))
	assert.Equal(t, 0, f.blobs.Count())

	err = f.svc.Delete(ctx, "", res.Dataset.ID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestReport_StoresLastRender(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.ingest(t, "", "a.csv", testutil.SampleCSV)
	id := res.Dataset.ID

	_, err := f.svc.LastReport(ctx, "", id)
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)

	first, err := f.svc.Report(ctx, "", id, report.DefaultSelection())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first.PDF, []byte("%PDF-")))
	assert.Equal(t, "report_"+id+".pdf", first.Filename)
	firstKey := first.Dataset.ReportKey
	require.NotEmpty(t, firstKey)

	second, err := f.svc.Report(ctx, "", id, report.ParseSelection("Type", "Pressure", "Type"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pressure"}, second.View.Selection.YColumns)
	assert.False(t, f.blobs.Has(firstKey), "previous render is replaced")

	last, err := f.svc.LastReport(ctx, "", id)
	require.NoError(t, err)
	assert.Equal(t, second.PDF, last.PDF)
}

func TestReport_InvalidSelection(t *testing.T) {
	f := newFixture(t, nil)
	res := f.ingest(t, "", "a.csv", testutil.SampleCSV)

	_, err := f.svc.Report(context.Background(), "", res.Dataset.ID, report.ParseSelection("Nope", "", ""))
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLatestReport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.LatestReport(ctx, "", report.DefaultSelection())
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)

	f.ingest(t, "", "old.csv", testutil.SampleCSV)
	newest := f.ingest(t, "", "new.csv", testutil.SampleCSV)

	res, err := f.svc.LatestReport(ctx, "", report.DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, newest.Dataset.ID, res.Dataset.ID)
}

func TestReport_ZeroRows(t *testing.T) {
	f := newFixture(t, nil)
	res := f.ingest(t, "", "empty.csv", testutil.HeaderOnlyCSV)
	assert.Equal(t, 0, res.Dataset.Summary.TotalCount)

	out, err := f.svc.Report(context.Background(), "", res.Dataset.ID, report.DefaultSelection())
	require.NoError(t, err)
	assert.False(t, out.View.HasData())
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF-")))
}

func TestChart(t *testing.T) {
	f := newFixture(t, nil)
	res := f.ingest(t, "", "a.csv", testutil.SampleCSV)

	img, err := f.svc.Chart(context.Background(), "", res.Dataset.ID, report.ChartPie, report.DefaultSelection())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}
