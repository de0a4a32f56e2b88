package paystub_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evmosdao/paystub/internal/application/paystub"
	domain "github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/evmosdao/paystub/internal/domain/shared"
	infra "github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/evmosdao/paystub/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticLogo struct {
	mu    sync.Mutex
	state domain.ResolvedLogo
}

func (l *staticLogo) Current() domain.ResolvedLogo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *staticLogo) set(state domain.ResolvedLogo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []paystub.Outcome
}

func (n *recordingNotifier) Notify(ctx context.Context, outcome paystub.Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, outcome)
}

func (n *recordingNotifier) last() paystub.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outcomes[len(n.outcomes)-1]
}

type serviceFixture struct {
	service    *paystub.PaystubService
	rasterizer *MockRasterizer
	storage    *storage.MemoryPDFStorage
	notifier   *recordingNotifier
	logo       *staticLogo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	r, p, store := happyPipeline()
	logo := &staticLogo{state: domain.PendingLogo()}
	notifier := &recordingNotifier{}
	engine := infra.NewTemplateEngine(infra.WithBarcodes(false))

	svc := paystub.NewPaystubService(
		paystub.NewSessionStore(time.Hour),
		engine,
		logo,
		paystub.NewExporter(r, p, store),
		notifier,
		nil,
	)
	return &serviceFixture{service: svc, rasterizer: r, storage: store, notifier: notifier, logo: logo}
}

func TestPaystubService_CreateSession(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.Mounted)
	assert.True(t, resp.Record.IsBlank())
	require.NotNil(t, resp.Display)
	assert.Equal(t, "N/A", resp.Display.Name)
	assert.Equal(t, "$0.00", resp.Display.GrossPay)
	assert.Equal(t, "$0.00", resp.Display.TotalGrossPay)
	assert.False(t, resp.Display.LogoEmbedded)
	assert.Nil(t, resp.LastExport)
}

func TestPaystubService_UpdateField(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	t.Run("updates one field and re-renders", func(t *testing.T) {
		resp, err := f.service.UpdateField(ctx, id, paystub.UpdateFieldRequest{Field: "grossPay", Value: "1234.5"})
		require.NoError(t, err)
		assert.Equal(t, "1234.5", resp.Record.GrossPay)
		assert.Equal(t, "$1,234.50", resp.Display.GrossPay)
		assert.Equal(t, "$1,234.50", resp.Display.TotalGrossPay)
		assert.Equal(t, "$0.00", resp.Display.YTDGross)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := f.service.UpdateField(ctx, id, paystub.UpdateFieldRequest{Field: "bonus", Value: "1"})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, domain.ErrCodeUnknownField, domainErr.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.service.UpdateField(ctx, uuid.New(), paystub.UpdateFieldRequest{Field: "name", Value: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaystubService_ReplaceRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp, err := f.service.ReplaceRecord(ctx, uuid.MustParse(created.ID), paystub.ReplaceRecordRequest{Record: janeDoe()})
	require.NoError(t, err)

	assert.Equal(t, janeDoe(), resp.Record)
	assert.Equal(t, "Jane Doe", resp.Display.Name)
	assert.Equal(t, "Jan 20, 2024", resp.Display.PayDate)
	assert.Equal(t, "Jan 1, 2024 - Jan 15, 2024", resp.Display.PayPeriod)
	assert.Equal(t, "$1,234.50", resp.Display.TotalYTDGross)
	assert.Equal(t, "0xabc", resp.Display.TransactionHash)
}

func TestPaystubService_Export(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)
	_, err = f.service.ReplaceRecord(ctx, id, paystub.ReplaceRecordRequest{Record: janeDoe()})
	require.NoError(t, err)

	resp, err := f.service.Export(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, paystub.SuccessOutcome(), resp.Outcome)
	assert.Equal(t, paystub.SuccessOutcome(), f.notifier.last())
	assert.Equal(t, "evmos-dao-paystub.pdf", resp.FileName)
	assert.NotEmpty(t, resp.PDF)
	assert.NotEmpty(t, resp.URL)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "COMPLETED", resp.Job.Status)
	assert.Equal(t, 1, f.storage.Len())

	session, err := f.service.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, session.LastExport)
	assert.Equal(t, resp.Job.ID, session.LastExport.ID)

	f.rasterizer.AssertCalled(t, "Rasterize", mock.Anything, mock.MatchedBy(func(req *infra.RasterizeRequest) bool {
		return strings.Contains(req.HTML, "Jane Doe") && req.Selector == infra.RootSelector
	}))
}

func TestPaystubService_Export_CaptureFailure(t *testing.T) {
	r := new(MockRasterizer)
	r.On("Rasterize", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	notifier := &recordingNotifier{}
	store := storage.NewMemoryPDFStorage()

	svc := paystub.NewPaystubService(
		paystub.NewSessionStore(0),
		infra.NewTemplateEngine(infra.WithBarcodes(false)),
		nil,
		paystub.NewExporter(r, new(MockPaginator), store),
		notifier,
		nil,
	)

	ctx := context.Background()
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	resp, err := svc.Export(ctx, uuid.MustParse(created.ID))
	assert.ErrorIs(t, err, &paystub.ExportError{Kind: paystub.KindCaptureFailed})
	require.NotNil(t, resp)

	assert.Equal(t, paystub.FailureOutcome("timeout"), resp.Outcome)
	assert.Equal(t, "Failed to generate PDF: timeout", notifier.last().Description)
	assert.Empty(t, resp.PDF)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "FAILED", resp.Job.Status)
	assert.Equal(t, 0, store.Len())
}

func TestPaystubService_Preview_FollowsLogoState(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	preview, err := f.service.Preview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", preview.LogoState)
	assert.Equal(t, infra.RootSelector, preview.Selector)

	f.logo.set(domain.ReadyLogo("data:image/png;base64,iVBORw0KGgo=", 40, 40))

	preview, err = f.service.Preview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "READY", preview.LogoState)
	assert.Contains(t, preview.HTML, "data:image/png;base64,iVBORw0KGgo=")

	session, err := f.service.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, session.Display.LogoEmbedded)
	assert.Equal(t, "READY", f.service.LogoStatus().State)
}

func TestPaystubService_DownloadAndDiscardExport(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = f.service.Download(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound, "nothing exported yet")

	_, err = f.service.Export(ctx, id)
	require.NoError(t, err)

	download, err := f.service.Download(ctx, id)
	require.NoError(t, err)
	data, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	require.NoError(t, download.Body.Close())
	assert.Equal(t, "%PDF-1.4 test", string(data))
	assert.Equal(t, "evmos-dao-paystub.pdf", download.FileName)
	assert.Equal(t, int64(len(data)), download.Size)

	require.NoError(t, f.service.DiscardExport(ctx, id))
	assert.Equal(t, 0, f.storage.Len())

	session, err := f.service.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, session.LastExport)

	_, err = f.service.Download(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.service.DiscardExport(ctx, id), shared.ErrNotFound)
	assert.ErrorIs(t, f.service.DiscardExport(ctx, uuid.New()), shared.ErrNotFound)
}

func TestPaystubService_Download_FailedExport(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	f.rasterizer.ExpectedCalls = nil
	f.rasterizer.On("Rasterize", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	_, err = f.service.Export(ctx, id)
	require.Error(t, err)

	_, err = f.service.Download(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaystubService_CloseSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	require.NoError(t, f.service.CloseSession(ctx, id))
	_, err = f.service.GetSession(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.service.CloseSession(ctx, id), shared.ErrNotFound)
}
