package streamimport_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
)

const dutchHeader = "Afvalstroomnummer,Verwerkersnummer,KvK verwerker,Naam verwerker,KvK ontdoener,Naam ontdoener," +
	"Land ontdoener,Straat herkomst,Huisnummer herkomst,Postcode herkomst,Plaats herkomst,Nabijheidsbeschrijving," +
	"Euralcode,Euralomschrijving,Gebruikelijke benaming,Verwerkingsmethode code,Route inzameling," +
	"Inzamelaarsregeling,Particuliere ontdoener\n"

const metalRow = "198080000004,19808,12345678,Eazy Recycling,87654321,Bouwbedrijf De Vries,NL," +
	"Dorpsstraat,12,1234AB,Utrecht,,170405,IJzer en staal,Metalen,A.02,N,N,N\n"

type importFixture struct {
	world    *memstore.World
	streams  *memstore.WasteStreams
	errors   *memstore.ImportErrors
	events   *memstore.Events
	archive  *memstore.Archive
	pipeline *streamimport.Pipeline
}

func newImportFixture() *importFixture {
	f := &importFixture{
		world:   memstore.NewWorld(),
		streams: memstore.NewWasteStreams(),
		errors:  &memstore.ImportErrors{},
		events:  &memstore.Events{},
		archive: &memstore.Archive{},
	}
	now := func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	svc := wastestream.NewService(f.streams, f.world.Companies, &numerator.MockAllocator{}, &memstore.TxManager{}).
		WithClock(now)
	f.pipeline = streamimport.NewPipeline(svc, f.world.Companies, f.errors, f.events, &memstore.TxManager{}).
		WithArchive(f.archive).
		WithCollector(f.world.Collector.ID).
		WithClock(now)
	return f
}

func (f *importFixture) run(t *testing.T, rows ...string) *streamimport.Result {
	t.Helper()
	res, err := f.pipeline.Import(context.Background(), "export.csv", strings.NewReader(dutchHeader+strings.Join(rows, "")))
	require.NoError(t, err)
	return res
}

func TestImport_RegistersActiveStream(t *testing.T) {
	f := newImportFixture()

	res := f.run(t, metalRow)
	assert.Equal(t, 1, res.TotalRows)
	assert.Equal(t, 1, res.SuccessfulImports)
	assert.Zero(t, res.ErrorCount)
	assert.Empty(t, res.Errors)

	ws, err := f.streams.GetByNumber(context.Background(), "198080000004")
	require.NoError(t, err)
	assert.Equal(t, "17 04 05", ws.WasteType.EuralCode)
	assert.Equal(t, "A.02", ws.WasteType.ProcessingMethodCode)
	assert.Equal(t, "Metalen", ws.WasteType.Name)
	assert.Equal(t, wastestream.StatusActive, ws.Status)
	assert.Equal(t, f.world.Processor.ID, ws.Delivery.ProcessorCompanyID)
	assert.Equal(t, location.Address{
		Street: "Dorpsstraat", HouseNumber: "12", PostalCode: "1234AB", City: "Utrecht", Country: "NL",
	}, ws.PickupLocation)

	assert.Equal(t, []string{streamimport.EventImported}, f.events.Types())
	assert.Contains(t, f.archive.Files, "imports/"+res.ImportID.String()+"/export.csv")
}

func TestImport_FirstOccurrenceWins(t *testing.T) {
	f := newImportFixture()
	changed := strings.Replace(metalRow, "Metalen", "Oud ijzer", 1)

	res := f.run(t, metalRow, changed)
	assert.Equal(t, 1, res.TotalRows)
	assert.Equal(t, 1, res.SuccessfulImports)
	assert.Equal(t, 1, f.streams.Len())

	ws, err := f.streams.GetByNumber(context.Background(), "198080000004")
	require.NoError(t, err)
	assert.Equal(t, "Metalen", ws.WasteType.Name)
}

func TestImport_UnknownCompanyIsRecordedAgainstRow(t *testing.T) {
	f := newImportFixture()
	unknown := strings.Replace(metalRow, "87654321", "99999999", 1)

	res := f.run(t, unknown)
	assert.Equal(t, 1, res.TotalRows)
	assert.Zero(t, res.SuccessfulImports)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, company.CodeCompanyNotFound, res.Errors[0].Code)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Empty(t, f.events.Types())

	stored, err := f.pipeline.ListErrors(context.Background(), streamimport.ErrorFilter{ImportID: &res.ImportID})
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "198080000004", stored.Items[0].WasteStreamNumber)
	assert.Equal(t, company.CodeCompanyNotFound, stored.Items[0].Code)
}

func TestImport_BadRowDoesNotAbortFile(t *testing.T) {
	f := newImportFixture()
	badEural := strings.Replace(strings.Replace(metalRow, "170405", "1704", 1), "198080000004", "198080000005", 1)
	private := strings.Replace(strings.Replace(metalRow, ",N\n", ",J\n", 1), "198080000004", "198080000006", 1)
	route := "198080000007,19808,12345678,Eazy Recycling,87654321,Bouwbedrijf De Vries,NL,,,,,,200301,Restafval,Restafval,D.10,Y,N,N\n"

	res := f.run(t, metalRow, badEural, private, route)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.SuccessfulImports)
	assert.Equal(t, 1, res.SkippedRows)
	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, []streamimport.RowError{{
		Row:     3,
		Code:    wastestream.CodeInvalidEuralCode,
		Message: "eural code must have 6 digits",
	}}, res.Errors)

	ws, err := f.streams.GetByNumber(context.Background(), "198080000007")
	require.NoError(t, err)
	assert.Equal(t, wastestream.CollectionRoute, ws.CollectionType)
	require.NotNil(t, ws.CollectorID)
	assert.Equal(t, f.world.Collector.ID, *ws.CollectorID)
	assert.Equal(t, location.None{}, ws.PickupLocation)

	_, err = f.streams.GetByNumber(context.Background(), "198080000006")
	assert.True(t, apperror.IsNotFound(err))
}

func TestImport_PickupFallsBackToProximityThenCompany(t *testing.T) {
	f := newImportFixture()
	proximity := "198080000010,19808,12345678,,87654321,,NL,,,,Rotterdam,Naast de haven,170405,,Metalen,A.02,N,N,N\n"
	companySite := "198080000011,19808,12345678,,87654321,,NL,,,,,,170405,,Metalen,A.02,N,N,N\n"

	res := f.run(t, proximity, companySite)
	require.Equal(t, 2, res.SuccessfulImports, res.Errors)

	ws, err := f.streams.GetByNumber(context.Background(), "198080000010")
	require.NoError(t, err)
	assert.Equal(t, location.Proximity{Description: "Naast de haven", City: "Rotterdam", Country: "NL"}, ws.PickupLocation)

	ws, err = f.streams.GetByNumber(context.Background(), "198080000011")
	require.NoError(t, err)
	assert.Equal(t, location.Company{CompanyID: f.world.Consignor.ID}, ws.PickupLocation)
}

func TestImport_ExistingStreamIsDuplicate(t *testing.T) {
	f := newImportFixture()
	f.run(t, metalRow)

	res := f.run(t, metalRow)
	assert.Zero(t, res.SuccessfulImports)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, apperror.CodeDuplicate, res.Errors[0].Code)
}

func TestImport_FileErrors(t *testing.T) {
	f := newImportFixture()

	_, err := f.pipeline.Import(context.Background(), "empty.csv", strings.NewReader(""))
	assert.Equal(t, streamimport.CodeHeaderRequired, apperror.CodeOf(err))

	_, err = f.pipeline.Import(context.Background(), "short.csv", strings.NewReader("Afvalstroomnummer,Euralcode\n198080000004,170405\n"))
	assert.Equal(t, streamimport.CodeMissingColumn, apperror.CodeOf(err))
	assert.Zero(t, f.streams.Len())
}

func TestClearErrors(t *testing.T) {
	f := newImportFixture()
	f.run(t, strings.Replace(metalRow, "87654321", "99999999", 1))
	f.run(t, strings.Replace(metalRow, "12345678", "99999999", 1))

	all, err := f.pipeline.ListErrors(context.Background(), streamimport.ErrorFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)

	n, err := f.pipeline.ClearErrors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err = f.pipeline.ListErrors(context.Background(), streamimport.ErrorFilter{})
	require.NoError(t, err)
	assert.Empty(t, all.Items)
}

func TestImport_ProcessorNumberMustMatchProcessor(t *testing.T) {
	f := newImportFixture()
	mismatch := strings.Replace(metalRow, ",19808,", ",12345,", 1)

	res := f.run(t, mismatch)
	assert.Zero(t, res.SuccessfulImports)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, streamimport.CodeProcessorMismatch, res.Errors[0].Code)
	assert.Zero(t, f.streams.Len())
}
