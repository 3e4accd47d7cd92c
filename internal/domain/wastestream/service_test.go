package wastestream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/audit"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
)

type streamFixture struct {
	world     *memstore.World
	repo      *memstore.WasteStreams
	allocator *numerator.MockAllocator
	svc       *wastestream.Service
	now       time.Time
}

func newStreamFixture() *streamFixture {
	f := &streamFixture{
		world:     memstore.NewWorld(),
		repo:      memstore.NewWasteStreams(),
		allocator: &numerator.MockAllocator{},
		now:       t0,
	}
	f.svc = wastestream.NewService(f.repo, f.world.Companies, f.allocator, &memstore.TxManager{}).
		WithClock(func() time.Time { return f.now })
	return f
}

func userCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "planner-1"})
}

func TestService_CreateIssuesSequentialNumbers(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	first, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)

	assert.Equal(t, wastestream.Number("198080000001"), first.Number)
	assert.Equal(t, wastestream.Number("198080000002"), second.Number)
	assert.Equal(t, "planner-1", first.CreatedBy)
	assert.Equal(t, 2, f.repo.Len())
}

func TestService_CreateRejectsNonProcessorDelivery(t *testing.T) {
	f := newStreamFixture()
	d := f.world.StreamDetails()
	d.Delivery.ProcessorCompanyID = f.world.Carrier.ID

	_, err := f.svc.Create(userCtx(), d)
	assert.Equal(t, wastestream.CodeNotAProcessor, apperror.CodeOf(err))
	assert.Zero(t, f.allocator.Current(wastestream.SequenceName("19808")))
}

func TestService_RejectedCreateKeepsNumberFree(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	d := f.world.StreamDetails()
	d.DealerID = &f.world.Collector.ID
	d.BrokerID = &f.world.Carrier.ID
	_, err := f.svc.Create(ctx, d)
	assert.Equal(t, wastestream.CodeDealerBrokerExclusive, apperror.CodeOf(err))
	assert.Zero(t, f.allocator.Current(wastestream.SequenceName("19808")))

	ws, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)
	assert.Equal(t, wastestream.Number("198080000001"), ws.Number)
}

func TestService_CreateDrawsNumberInTransaction(t *testing.T) {
	f := newStreamFixture()
	var inTx []bool
	f.allocator.NextValueFunc = func(ctx context.Context, name string) (int64, error) {
		inTx = append(inTx, memstore.InTransaction(ctx))
		return 7, nil
	}

	ws, err := f.svc.Create(userCtx(), f.world.StreamDetails())
	require.NoError(t, err)
	assert.Equal(t, wastestream.Number("198080000007"), ws.Number)
	assert.Equal(t, []bool{true}, inTx)
}

func TestService_CreateFailsWhenSequenceExhausted(t *testing.T) {
	f := newStreamFixture()
	require.NoError(t, f.allocator.EnsureAtLeast(context.Background(), wastestream.SequenceName("19808"), wastestream.MaxSequence))

	_, err := f.svc.Create(userCtx(), f.world.StreamDetails())
	assert.Equal(t, wastestream.CodeExhaustedSequence, apperror.CodeOf(err))
}

func TestService_RegisterAdvancesCounter(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	imported, err := f.svc.Register(ctx, "198080000004", f.world.StreamDetails(), true)
	require.NoError(t, err)
	assert.Equal(t, wastestream.StatusActive, imported.Status)

	next, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)
	assert.Equal(t, wastestream.Number("198080000005"), next.Number)

	_, err = f.svc.Register(ctx, "198080000004", f.world.StreamDetails(), true)
	assert.Equal(t, apperror.CodeDuplicate, apperror.CodeOf(err))
}

func TestService_UpdateActivateDelete(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	ws, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)

	d := f.world.StreamDetails()
	d.WasteType.Name = "Koper"
	updated, err := f.svc.Update(ctx, ws.Number, d)
	require.NoError(t, err)
	assert.Equal(t, "Koper", updated.WasteType.Name)
	assert.Equal(t, 2, updated.Version)

	_, err = f.svc.Activate(ctx, ws.Number)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, ws.Number, d)
	assert.Equal(t, apperror.CodeNotDraft, apperror.CodeOf(err))

	deleted, err := f.svc.Delete(ctx, ws.Number)
	require.NoError(t, err)
	assert.Equal(t, wastestream.StatusInactive, deleted.Status)

	f.now = f.now.AddDate(10, 0, 0)
	assert.Equal(t, wastestream.StatusInactive, f.svc.EffectiveStatus(deleted))

	_, err = f.svc.Delete(ctx, ws.Number)
	assert.Equal(t, wastestream.CodeAlreadyInactive, apperror.CodeOf(err))
}

func TestService_StaleVersionIsRejected(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	ws, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)

	stale := *ws
	_, err = f.svc.Activate(ctx, ws.Number)
	require.NoError(t, err)

	err = f.repo.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestService_RecordActivityPostponesExpiry(t *testing.T) {
	f := newStreamFixture()
	ctx := userCtx()

	ws, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, ws.Number)
	require.NoError(t, err)

	later := t0.AddDate(4, 0, 0)
	require.NoError(t, f.svc.RecordActivity(ctx, []wastestream.Number{ws.Number}, later))

	stored, err := f.svc.Get(ctx, ws.Number)
	require.NoError(t, err)
	f.now = t0.AddDate(6, 0, 0)
	assert.Equal(t, wastestream.StatusActive, f.svc.EffectiveStatus(stored))
	f.now = later.AddDate(5, 0, 1)
	assert.Equal(t, wastestream.StatusExpired, f.svc.EffectiveStatus(stored))
}

type recordingAuditor struct {
	actions []audit.Action
}

func (r *recordingAuditor) LogChange(_ context.Context, entityType, _ string, action audit.Action, _ map[string]any) error {
	if entityType == wastestream.EntityType {
		r.actions = append(r.actions, action)
	}
	return nil
}

func TestRegisterAudit_RecordsEveryTransition(t *testing.T) {
	f := newStreamFixture()
	rec := &recordingAuditor{}
	wastestream.RegisterAudit(f.svc.Hooks(), rec)
	ctx := userCtx()

	ws, err := f.svc.Create(ctx, f.world.StreamDetails())
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, ws.Number)
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, ws.Number)
	require.NoError(t, err)

	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionTransition, audit.ActionDelete}, rec.actions)
}
