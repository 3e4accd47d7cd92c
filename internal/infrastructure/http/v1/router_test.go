package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	v1 "github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/handlers"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/middleware"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/metrics"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type invoiceCreatorFunc func(ctx context.Context, t *weightticket.WeightTicket) (int64, error)

func (f invoiceCreatorFunc) CreateFromTicket(ctx context.Context, t *weightticket.WeightTicket) (int64, error) {
	return f(ctx, t)
}

type apiFixture struct {
	world   *memstore.World
	streams *memstore.WasteStreams
	tickets *memstore.WeightTickets
	decls   *memstore.Declarations
	gateway *declaration.MockGateway
	metrics *metrics.Metrics
	router  *gin.Engine
}

func newAPIFixture(t *testing.T, mutate ...func(*v1.RouterConfig)) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &apiFixture{
		world:   memstore.NewWorld(),
		streams: memstore.NewWasteStreams(),
		tickets: memstore.NewWeightTickets(),
		decls:   memstore.NewDeclarations(),
		gateway: declaration.NewMockGateway(ctrl),
		metrics: metrics.New(),
	}
	txm := &memstore.TxManager{}
	events := &memstore.Events{}

	streams := wastestream.NewService(f.streams, f.world.Companies, &numerator.MockAllocator{}, txm)
	creator := invoiceCreatorFunc(func(_ context.Context, t *weightticket.WeightTicket) (int64, error) {
		return 900 + t.ID, nil
	})
	tickets := weightticket.NewService(f.tickets, f.streams, memstore.NewTransports(), creator, &numerator.MockAllocator{}, txm)

	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	ledger := memstore.Ledger{Tickets: f.tickets, Streams: f.streams, Companies: f.world.Companies}
	workflow := declaration.NewWorkflow(
		declaration.NewAggregator(ledger, f.decls, "19808", loc),
		f.decls,
		declaration.NewMessageBuilder(f.streams, f.world.Companies),
		f.gateway,
		lock.NewMemory(),
		events,
		txm,
	).WithObserver(f.metrics)

	pipeline := streamimport.NewPipeline(streams, f.world.Companies, &memstore.ImportErrors{}, events, txm).
		WithObserver(f.metrics).
		WithCollector(f.world.Collector.ID)

	cfg := v1.RouterConfig{
		Logger:  logger.NewNop(),
		Version: "test",
		Metrics: f.metrics,
		HealthChecks: map[string]handlers.Check{
			"database": func(context.Context) error { return nil },
		},
		WasteStreams:  streams,
		WeightTickets: tickets,
		Declarations:  workflow,
		Imports:       pipeline,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	f.router = v1.NewRouter(cfg)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) activeStream(t *testing.T, number wastestream.Number) {
	t.Helper()
	ctx := context.Background()
	ws, err := wastestream.New(ctx, number, f.world.StreamDetails(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "tester")
	require.NoError(t, err)
	require.NoError(t, ws.Activate(ctx, ws.CreatedAt, "tester"))
	require.NoError(t, f.streams.Create(ctx, ws))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func streamBody(w *memstore.World) map[string]any {
	return map[string]any{
		"wasteType": map[string]any{
			"name":                 "Metalen",
			"euralCode":            "17 04 05",
			"processingMethodCode": "A.02",
		},
		"collectionType":          "DEFAULT",
		"pickupLocation":          map[string]any{"type": "COMPANY", "companyId": w.Consignor.ID},
		"delivery":                map[string]any{"processorCompanyId": w.Processor.ID, "processorId": "19808"},
		"consignor":               map[string]any{"type": "COMPANY", "companyId": w.Consignor.ID},
		"consignorClassification": "PICKUP_PARTY",
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}

func TestHealth_ReadyReportsFailingDependency(t *testing.T) {
	f := newAPIFixture(t, func(cfg *v1.RouterConfig) {
		cfg.HealthChecks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	})

	rec := f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy: connection refused")
}

func TestWasteStreams_Lifecycle(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/waste-streams", streamBody(f.world), middleware.HeaderUserID, "planner-7")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.WasteStreamResponse](t, rec)
	assert.Equal(t, "198080000001", created.Number)
	assert.Equal(t, wastestream.StatusDraft, created.Status)
	assert.Equal(t, "17 04 05", created.WasteType.EuralCode)
	assert.Equal(t, "planner-7", created.CreatedBy)

	rec = f.do(t, http.MethodPost, "/api/v1/waste-streams/198080000001/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, wastestream.StatusActive, decode[dto.WasteStreamResponse](t, rec).Status)

	rec = f.do(t, http.MethodGet, "/api/v1/waste-streams?status=ACTIVE", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListResponse[dto.WasteStreamResponse]](t, rec)
	assert.EqualValues(t, 1, list.TotalCount)

	rec = f.do(t, http.MethodDelete, "/api/v1/waste-streams/198080000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wastestream.StatusInactive, decode[dto.WasteStreamResponse](t, rec).Status)

	rec = f.do(t, http.MethodDelete, "/api/v1/waste-streams/198080000001", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, wastestream.CodeAlreadyInactive, decode[dto.ErrorResponse](t, rec).Code)
}

func TestWasteStreams_Errors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/waste-streams/12", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, wastestream.CodeInvalidNumber, decode[dto.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/waste-streams/198080000099", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.CodeNotFound, decode[dto.ErrorResponse](t, rec).Code)

	body := streamBody(f.world)
	body["pickupLocation"] = map[string]any{"type": "SPACESHIP"}
	rec = f.do(t, http.MethodPost, "/api/v1/waste-streams", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decode[dto.ErrorResponse](t, rec).Code)
}

func TestWeightTickets_Flow(t *testing.T) {
	f := newAPIFixture(t)
	f.activeStream(t, "198080000001")

	body := map[string]any{
		"consignor": party.Fields{Kind: party.KindCompany, CompanyID: &f.world.Consignor.ID},
		"lines": []map[string]any{
			{"wasteStreamNumber": "198080000001", "weight": map[string]any{"value": "1200", "unit": "KG"}},
		},
		"direction":  "INBOUND",
		"weightedAt": "2025-11-12T08:00:00Z",
	}
	rec := f.do(t, http.MethodPost, "/api/v1/weight-tickets", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ticket := decode[dto.WeightTicketResponse](t, rec)
	assert.Equal(t, weightticket.StatusDraft, ticket.Status)
	assert.Equal(t, "1200", ticket.TotalKilograms.String())

	path := "/api/v1/weight-tickets/" + jsonNumber(ticket.ID)

	rec = f.do(t, http.MethodPost, path+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, weightticket.StatusCompleted, decode[dto.WeightTicketResponse](t, rec).Status)

	rec = f.do(t, http.MethodPost, path+"/invoice", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 900+ticket.ID, decode[map[string]any](t, rec)["id"])

	rec = f.do(t, http.MethodPost, path+"/cancel", map[string]string{"reason": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, weightticket.CodeCancellationReasonRequired, decode[dto.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/weight-tickets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestDeclarations_RunAndList(t *testing.T) {
	f := newAPIFixture(t)
	f.activeStream(t, "198080000001")
	require.NoError(t, f.tickets.Create(context.Background(), &weightticket.WeightTicket{
		ID: 1,
		Details: weightticket.Details{
			Consignor:  party.Company{CompanyID: f.world.Consignor.ID},
			Lines:      []weightticket.Line{{WasteStreamNumber: "198080000001", Weight: types.Kilograms(2500)}},
			Direction:  weightticket.DirectionInbound,
			CarrierID:  &f.world.Carrier.ID,
			WeightedAt: time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC),
		},
		Status: weightticket.StatusCompleted,
	}))

	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(declaration.Acknowledgement{Accepted: true, Reference: "LMA-42"}, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/declarations/run", map[string]any{"period": "2025-11"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[dto.RunReportResponse](t, rec)
	assert.Equal(t, 1, report.Submitted)
	require.Len(t, report.Declarations, 1)
	assert.Equal(t, declaration.KindFirstReceival, report.Declarations[0].Kind)
	assert.EqualValues(t, 2500, report.Declarations[0].TotalWeight)
	assert.Equal(t, "LMA-42", report.Declarations[0].GatewayReference)

	rec = f.do(t, http.MethodGet, "/api/v1/declarations?period=2025-11&status=SUBMITTED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[dto.ListResponse[dto.DeclarationResponse]](t, rec).TotalCount)

	rec = f.do(t, http.MethodGet, "/api/v1/declarations?period=nov", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), `eazy_recycling_lma_submissions_total{outcome="submitted"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/declarations/run"`)
}

const importCSV = "Afvalstroomnummer,Verwerkersnummer,KvK verwerker,Naam verwerker,KvK ontdoener,Naam ontdoener," +
	"Land ontdoener,Straat herkomst,Huisnummer herkomst,Postcode herkomst,Plaats herkomst,Nabijheidsbeschrijving," +
	"Euralcode,Euralomschrijving,Gebruikelijke benaming,Verwerkingsmethode code,Route inzameling," +
	"Inzamelaarsregeling,Particuliere ontdoener\n" +
	"198080000004,19808,12345678,Eazy Recycling,87654321,Bouwbedrijf De Vries,NL," +
	"Dorpsstraat,12,1234AB,Utrecht,,170405,IJzer en staal,Metalen,A.02,N,N,N\n"

func TestImports_Upload(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(handlers.FormFile, "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/waste-streams", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[streamimport.Result](t, rec)
	assert.Equal(t, 1, res.SuccessfulImports)
	assert.Empty(t, res.Errors)

	ws, err := f.streams.GetByNumber(context.Background(), "198080000004")
	require.NoError(t, err)
	assert.Equal(t, wastestream.StatusActive, ws.Status)
}

func TestImports_UploadRequiresFile(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/waste-streams", strings.NewReader(""))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeIdempotency struct {
	stored    map[string][]byte
	completed int
	released  int
}

func (s *fakeIdempotency) AcquireKey(_ context.Context, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	if body, ok := s.stored[key]; ok {
		return &postgres.IdempotencyReplay{StatusCode: http.StatusCreated, ContentType: "application/json", Body: body}, nil
	}
	return nil, nil
}

func (s *fakeIdempotency) CompleteKey(_ context.Context, key string, _ int, _ string, body []byte) error {
	s.completed++
	s.stored[key] = append([]byte(nil), body...)
	return nil
}

func (s *fakeIdempotency) FailKey(_ context.Context, key string, _ int, _ string, body []byte) error {
	s.stored[key] = append([]byte(nil), body...)
	return nil
}

func (s *fakeIdempotency) ReleaseKey(context.Context, string) error {
	s.released++
	return nil
}

func TestIdempotency_ReplaysCreate(t *testing.T) {
	store := &fakeIdempotency{stored: map[string][]byte{}}
	f := newAPIFixture(t, func(cfg *v1.RouterConfig) { cfg.Idempotency = store })

	first := f.do(t, http.MethodPost, "/api/v1/waste-streams", streamBody(f.world), middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(t, http.MethodPost, "/api/v1/waste-streams", streamBody(f.world), middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Equal(t, 1, store.completed)
	assert.Equal(t, 1, f.streams.Len())
}
