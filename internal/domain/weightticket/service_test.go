package weightticket_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/audit"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
)

var t0 = time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC)

type invoiceCreatorFunc func(ctx context.Context, t *weightticket.WeightTicket) (int64, error)

func (f invoiceCreatorFunc) CreateFromTicket(ctx context.Context, t *weightticket.WeightTicket) (int64, error) {
	return f(ctx, t)
}

type ticketFixture struct {
	world      *memstore.World
	streams    *memstore.WasteStreams
	tickets    *memstore.WeightTickets
	transports *memstore.Transports
	invoiced   []int64
	svc        *weightticket.Service
	stream     *wastestream.WasteStream
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		world:      memstore.NewWorld(),
		streams:    memstore.NewWasteStreams(),
		tickets:    memstore.NewWeightTickets(),
		transports: memstore.NewTransports(),
	}
	creator := invoiceCreatorFunc(func(_ context.Context, t *weightticket.WeightTicket) (int64, error) {
		f.invoiced = append(f.invoiced, t.ID)
		return 500 + t.ID, nil
	})
	f.svc = weightticket.NewService(f.tickets, f.streams, f.transports, creator, &numerator.MockAllocator{}, &memstore.TxManager{}).
		WithClock(func() time.Time { return t0 })

	ctx := context.Background()
	ws, err := wastestream.New(ctx, "198080000001", f.world.StreamDetails(), t0.AddDate(-1, 0, 0), "tester")
	require.NoError(t, err)
	require.NoError(t, ws.Activate(ctx, t0.AddDate(-1, 0, 0), "tester"))
	require.NoError(t, f.streams.Create(ctx, ws))
	f.stream = ws
	return f
}

func (f *ticketFixture) details(weights ...string) weightticket.Details {
	lines := make([]weightticket.Line, len(weights))
	for i, w := range weights {
		lines[i] = weightticket.Line{WasteStreamNumber: f.stream.Number, Weight: types.MustWeight(w)}
	}
	carrier := f.world.Carrier.ID
	return weightticket.Details{
		Consignor:  party.Company{CompanyID: f.world.Consignor.ID},
		Lines:      lines,
		Direction:  weightticket.DirectionInbound,
		CarrierID:  &carrier,
		WeightedAt: t0.Add(-time.Hour),
	}
}

func ctxAs(user string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: user})
}

func TestService_CreateAllocatesIDs(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	a, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, f.details("200"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, weightticket.StatusDraft, a.Status)
	assert.Equal(t, "weigher", a.CreatedBy)
}

func TestService_CreateChecksStreams(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	d := f.details("100")
	d.Lines[0].WasteStreamNumber = "198080000099"
	_, err := f.svc.Create(ctx, d)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, f.stream.Delete(t0, "tester"))
	require.NoError(t, f.streams.Update(ctx, f.stream))
	_, err = f.svc.Create(ctx, f.details("100"))
	assert.Equal(t, weightticket.CodeStreamNotUsable, apperror.CodeOf(err))
}

func TestService_CompleteRecordsStreamActivity(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	wt, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusCompleted, done.Status)

	stream, err := f.streams.GetByNumber(ctx, f.stream.Number)
	require.NoError(t, err)
	assert.Equal(t, wt.WeightedAt, stream.LastActivityAt)

	_, err = f.svc.Update(ctx, wt.ID, f.details("150"))
	assert.Equal(t, apperror.CodeNotDraft, apperror.CodeOf(err))
}

func TestService_CompleteWithoutLines(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	wt, err := f.svc.Create(ctx, f.details())
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, wt.ID)
	assert.Equal(t, weightticket.CodeNoLines, apperror.CodeOf(err))

	stored, err := f.svc.Get(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusDraft, stored.Status)
}

func TestService_SplitStoresBothTickets(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	wt, err := f.svc.Create(ctx, f.details("1000"))
	require.NoError(t, err)

	original, child, err := f.svc.Split(ctx, wt.ID, 60, 40)
	require.NoError(t, err)
	assert.Equal(t, "600", original.Lines[0].Weight.Value.String())
	assert.Equal(t, "400", child.Lines[0].Weight.Value.String())

	storedChild, err := f.svc.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusDraft, storedChild.Status)

	_, _, err = f.svc.Split(ctx, wt.ID, 60, 50)
	assert.Equal(t, weightticket.CodeSplitMustSumTo100, apperror.CodeOf(err))
}

func TestService_CopyIsIndependent(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("weigher")

	wt, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, wt.ID, "dubbel gewogen")
	require.NoError(t, err)

	cp, err := f.svc.Copy(ctx, wt.ID)
	require.NoError(t, err)
	assert.NotEqual(t, wt.ID, cp.ID)
	assert.Equal(t, weightticket.StatusDraft, cp.Status)
	assert.Empty(t, cp.CancellationReason)
	assert.Equal(t, wt.Lines, cp.Lines)
}

func TestService_CreateInvoice(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("admin")

	wt, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)

	_, err = f.svc.CreateInvoice(ctx, wt.ID)
	assert.Equal(t, weightticket.CodeNotCompleted, apperror.CodeOf(err))
	assert.Empty(t, f.invoiced)

	_, err = f.svc.Complete(ctx, wt.ID)
	require.NoError(t, err)
	invoiceID, err := f.svc.CreateInvoice(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, 500+wt.ID, invoiceID)

	stored, err := f.svc.Get(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusInvoiced, stored.Status)
	require.NotNil(t, stored.InvoiceID)
	assert.Equal(t, invoiceID, *stored.InvoiceID)
}

func TestService_CreateInvoiceFailureKeepsTicketCompleted(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("admin")
	boom := errors.New("catalog unavailable")
	svc := weightticket.NewService(f.tickets, f.streams, f.transports,
		invoiceCreatorFunc(func(context.Context, *weightticket.WeightTicket) (int64, error) { return 0, boom }),
		&numerator.MockAllocator{}, &memstore.TxManager{})

	wt, err := svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	_, err = svc.Complete(ctx, wt.ID)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, wt.ID)
	assert.ErrorIs(t, err, boom)

	stored, err := svc.Get(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusCompleted, stored.Status)
}

func TestService_CreateTransportKeepsStatus(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("planner")

	wt, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, wt.ID)
	require.NoError(t, err)

	pickup := t0.Add(24 * time.Hour)
	tr, err := f.svc.CreateTransport(ctx, wt.ID, pickup, nil)
	require.NoError(t, err)
	assert.Equal(t, wt.ID, tr.WeightTicketID)
	require.Len(t, tr.Goods, 1)
	assert.Equal(t, f.stream.Number, tr.Goods[0].WasteStreamNumber)

	stored, err := f.svc.Get(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, weightticket.StatusCompleted, stored.Status)
	require.NotNil(t, stored.TransportID)
	assert.Equal(t, tr.ID, *stored.TransportID)

	_, err = f.svc.CreateTransport(ctx, wt.ID, pickup, nil)
	assert.Equal(t, weightticket.CodeTransportAlreadyLinked, apperror.CodeOf(err))
	assert.Equal(t, 1, f.transports.Len())
}

func TestService_CreateTransportRejectsBackwardsDelivery(t *testing.T) {
	f := newTicketFixture(t)
	ctx := ctxAs("planner")

	wt, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)

	delivery := t0
	_, err = f.svc.CreateTransport(ctx, wt.ID, t0.Add(time.Hour), &delivery)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.Zero(t, f.transports.Len())
}

type recordingAuditor struct {
	actions []audit.Action
}

func (r *recordingAuditor) LogChange(_ context.Context, entityType, _ string, action audit.Action, _ map[string]any) error {
	if entityType == weightticket.EntityType {
		r.actions = append(r.actions, action)
	}
	return nil
}

func TestRegisterAudit_SeparatesEditsFromTransitions(t *testing.T) {
	f := newTicketFixture(t)
	rec := &recordingAuditor{}
	weightticket.RegisterAudit(f.svc.Hooks(), rec)
	ctx := ctxAs("weigher")

	tk, err := f.svc.Create(ctx, f.details("100"))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, tk.ID, f.details("120"))
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, tk.ID)
	require.NoError(t, err)

	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionUpdate, audit.ActionTransition}, rec.actions)
}
