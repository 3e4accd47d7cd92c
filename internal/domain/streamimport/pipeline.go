package streamimport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// Outbox event.
const (
	AggregateType = "WasteStreamImport"
	EventImported = "WasteStreamsImported"
)

// DefaultCountry is used for origin addresses without a country.
const DefaultCountry = "NL"

// Registrar stores a stream under an external number.
// wastestream.Service satisfies it.
type Registrar interface {
	Register(ctx context.Context, number wastestream.Number, d wastestream.Details, activate bool) (*wastestream.WasteStream, error)
}

// Pipeline imports registry exports.
type Pipeline struct {
	streams     Registrar
	companies   company.Lookup
	errors      ErrorRepository
	events      domain.EventPublisher
	txManager   tx.Manager
	archive     Archive
	observer    Observer
	collectorID *id.ID
	now         func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	streams Registrar,
	companies company.Lookup,
	errors ErrorRepository,
	events domain.EventPublisher,
	txManager tx.Manager,
) *Pipeline {
	return &Pipeline{
		streams:   streams,
		companies: companies,
		errors:    errors,
		events:    events,
		txManager: txManager,
		observer:  nopObserver{},
		now:       time.Now,
	}
}

// WithArchive stores every uploaded file before it is parsed.
func (p *Pipeline) WithArchive(a Archive) *Pipeline {
	p.archive = a
	return p
}

// WithObserver sets the row outcome observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// WithCollector sets the collector recorded on route and collectors
// scheme streams. The export does not name one.
func (p *Pipeline) WithCollector(collectorID id.ID) *Pipeline {
	p.collectorID = &collectorID
	return p
}

// WithClock overrides the time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Import registers the streams of one export file. Rows flagged as a
// private consignor are skipped. Rows that fail are recorded with their
// line number and code; later rows are still imported. Only file-level
// and storage errors are returned as error.
func (p *Pipeline) Import(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	result := &Result{ImportID: id.New(), Errors: []RowError{}}

	if p.archive != nil {
		key := path.Join("imports", result.ImportID.String(), path.Base(filename))
		if err := p.archive.Store(ctx, key, data, "text/csv"); err != nil {
			return nil, fmt.Errorf("archive import file: %w", err)
		}
	}

	rows, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var (
		seen     = make(map[string]struct{}, len(rows))
		stored   []StoredError
		imported []string
	)
	for _, row := range rows {
		if _, dup := seen[row.StreamNumber]; dup {
			continue
		}
		seen[row.StreamNumber] = struct{}{}
		result.TotalRows++

		ws, skipped, err := p.importRow(ctx, row)
		switch {
		case err != nil:
			if !apperror.IsAppError(err) {
				return nil, fmt.Errorf("import row %d: %w", row.Line, err)
			}
			rowErr := toRowError(row.Line, err)
			result.Errors = append(result.Errors, rowErr)
			stored = append(stored, StoredError{
				ImportID:          result.ImportID,
				WasteStreamNumber: row.StreamNumber,
				CreatedAt:         p.now().UTC(),
				RowError:          rowErr,
			})
		case skipped:
			result.SkippedRows++
		default:
			result.SuccessfulImports++
			imported = append(imported, ws.Number.String())
		}
	}
	result.ErrorCount = len(result.Errors)

	err = p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if len(stored) > 0 {
			if err := p.errors.Save(ctx, stored); err != nil {
				return fmt.Errorf("save import errors: %w", err)
			}
		}
		if len(imported) == 0 {
			return nil
		}
		return p.events.Publish(ctx, domain.Event{
			AggregateType: AggregateType,
			AggregateID:   result.ImportID.String(),
			EventType:     EventImported,
			Payload: map[string]any{
				"file":               path.Base(filename),
				"wasteStreamNumbers": imported,
				"totalRows":          result.TotalRows,
				"skippedRows":        result.SkippedRows,
				"errorCount":         result.ErrorCount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	p.observer.ObserveImport(result.SuccessfulImports, result.SkippedRows, result.ErrorCount)
	logger.Info(ctx, "waste streams imported",
		"importId", result.ImportID,
		"file", filename,
		"totalRows", result.TotalRows,
		"successful", result.SuccessfulImports,
		"skipped", result.SkippedRows,
		"errors", result.ErrorCount)
	return result, nil
}

// ListErrors returns stored row errors, newest import first.
func (p *Pipeline) ListErrors(ctx context.Context, filter ErrorFilter) (domain.ListResult[StoredError], error) {
	return p.errors.List(ctx, filter)
}

// ClearErrors removes every stored row error.
func (p *Pipeline) ClearErrors(ctx context.Context) (int64, error) {
	var n int64
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = p.errors.Clear(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear import errors: %w", err)
	}
	logger.Info(ctx, "import errors cleared", "count", n)
	return n, nil
}

func (p *Pipeline) importRow(ctx context.Context, row Row) (*wastestream.WasteStream, bool, error) {
	private, err := flag(row.PrivateConsignor, "privateConsignor")
	if err != nil {
		return nil, false, err
	}
	if private {
		return nil, true, nil
	}

	number, err := wastestream.ParseNumber(row.StreamNumber)
	if err != nil {
		return nil, false, err
	}
	d, err := p.details(ctx, row)
	if err != nil {
		return nil, false, err
	}
	ws, err := p.streams.Register(ctx, number, d, true)
	if err != nil {
		return nil, false, err
	}
	return ws, false, nil
}

func (p *Pipeline) details(ctx context.Context, row Row) (wastestream.Details, error) {
	consignor, err := p.findCompany(ctx, row.ConsignorKvK, "consignor")
	if err != nil {
		return wastestream.Details{}, err
	}
	processor, err := p.findCompany(ctx, row.ProcessorKvK, "processor")
	if err != nil {
		return wastestream.Details{}, err
	}
	if row.ProcessorNumber != "" && row.ProcessorNumber != processor.ProcessorID {
		return wastestream.Details{}, apperror.NewBusinessRule(CodeProcessorMismatch,
			"processor number does not match the registered processor").
			WithDetail("processorNumber", row.ProcessorNumber).
			WithDetail("processorId", processor.ProcessorID)
	}
	collection, err := collectionType(row)
	if err != nil {
		return wastestream.Details{}, err
	}
	eural, err := wastestream.NormalizeEuralCode(row.EuralCode)
	if err != nil {
		return wastestream.Details{}, err
	}

	name := row.WasteName
	if name == "" {
		name = row.EuralDescription
	}
	d := wastestream.Details{
		WasteType: wastestream.WasteType{
			Name:                        name,
			EuralCode:                   eural,
			EuralDescription:            row.EuralDescription,
			ProcessingMethodCode:        row.ProcessingMethodCode,
			ProcessingMethodDescription: row.ProcessingMethodDescription,
		},
		CollectionType:          collection,
		PickupLocation:          location.None{},
		Delivery:                wastestream.Delivery{ProcessorCompanyID: processor.ID, ProcessorID: processor.ProcessorID},
		Consignor:               party.Company{CompanyID: consignor.ID},
		ConsignorClassification: wastestream.ClassificationPickupParty,
	}
	if collection == wastestream.CollectionDefault {
		d.PickupLocation = pickupLocation(row, consignor)
	} else {
		d.CollectorID = p.collectorID
	}
	return d, nil
}

func (p *Pipeline) findCompany(ctx context.Context, kvk, role string) (*company.Company, error) {
	if kvk == "" {
		return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", kvk).
			WithDetail("role", role)
	}
	c, err := p.companies.FindByChamberOfCommerceID(ctx, kvk)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", kvk).
			WithDetail("role", role)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectionType(row Row) (wastestream.CollectionType, error) {
	route, err := flag(row.RouteCollection, "routeCollection")
	if err != nil {
		return "", err
	}
	scheme, err := flag(row.CollectorsScheme, "collectorsScheme")
	if err != nil {
		return "", err
	}
	switch {
	case route && scheme:
		return "", apperror.NewBusinessRule(CodeConflictingFlags, "route collection and collectors scheme are mutually exclusive")
	case route:
		return wastestream.CollectionRoute, nil
	case scheme:
		return wastestream.CollectionCollectorsScheme, nil
	}
	return wastestream.CollectionDefault, nil
}

// pickupLocation prefers a street address, then a proximity
// description, then the consignor's registered address.
func pickupLocation(row Row, consignor *company.Company) location.Location {
	country := row.OriginCountry
	if country == "" {
		country = DefaultCountry
	}
	switch {
	case row.OriginStreet != "" && row.OriginHouseNumber != "":
		return location.Address{
			Street:              row.OriginStreet,
			HouseNumber:         row.OriginHouseNumber,
			HouseNumberAddition: row.OriginHouseNumberAddition,
			PostalCode:          row.OriginPostalCode,
			City:                row.OriginCity,
			Country:             country,
		}
	case row.OriginDescription != "":
		return location.Proximity{
			Description: row.OriginDescription,
			PostalCode:  row.OriginPostalCode,
			City:        row.OriginCity,
			Country:     country,
		}
	}
	return location.Company{CompanyID: consignor.ID}
}

func flag(value, field string) (bool, error) {
	v, err := ParseFlag(value)
	if err != nil {
		return false, apperror.NewBusinessRule(CodeInvalidFlag, err.Error()).WithDetail("field", field)
	}
	return v, nil
}

func toRowError(line int, err error) RowError {
	appErr, _ := apperror.AsAppError(err)
	return RowError{Row: line, Code: appErr.Code, Message: appErr.Message}
}
