package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// Lines of every status are returned; the aggregator decides which count.
const ledgerLinesSQL = `
	SELECT t.id                      AS ticket_id,
	       t.status                  AS ticket_status,
	       t.weighted_at             AS weighted_at,
	       l.waste_stream_number     AS waste_stream_number,
	       s.processor_id            AS processor_id,
	       CASE WHEN l.weight_unit = 'TON' THEN l.weight_value * 1000
	            ELSE l.weight_value END AS kilograms,
	       COALESCE(c.vihb_number, '') AS carrier_vihb
	FROM weight_tickets t
	JOIN weight_ticket_lines l ON l.weight_ticket_id = t.id
	JOIN waste_streams s ON s.number = l.waste_stream_number
	LEFT JOIN companies c ON c.id = t.carrier_id
	WHERE t.weighted_at >= $1 AND t.weighted_at < $2
	ORDER BY t.weighted_at, t.id, l.line_no`

type ledgerLineRecord struct {
	TicketID          int64           `db:"ticket_id"`
	TicketStatus      string          `db:"ticket_status"`
	WeightedAt        time.Time       `db:"weighted_at"`
	WasteStreamNumber string          `db:"waste_stream_number"`
	ProcessorID       string          `db:"processor_id"`
	Kilograms         decimal.Decimal `db:"kilograms"`
	CarrierVIHB       string          `db:"carrier_vihb"`
}

// Ledger implements declaration.Ledger over the weight ticket tables.
type Ledger struct {
	txManager *postgres.TxManager
}

var _ declaration.Ledger = (*Ledger)(nil)

// NewLedger creates a new ledger reader.
func NewLedger(txManager *postgres.TxManager) *Ledger {
	return &Ledger{txManager: txManager}
}

func (l *Ledger) LinesBetween(ctx context.Context, from, to time.Time) ([]declaration.LedgerLine, error) {
	var recs []ledgerLineRecord
	if err := pgxscan.Select(ctx, l.txManager.GetQuerier(ctx), &recs, ledgerLinesSQL, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("read ledger lines: %w", err)
	}

	out := make([]declaration.LedgerLine, len(recs))
	for i, r := range recs {
		out[i] = declaration.LedgerLine{
			TicketID:          r.TicketID,
			TicketStatus:      weightticket.Status(r.TicketStatus),
			WeightedAt:        r.WeightedAt.UTC(),
			WasteStreamNumber: wastestream.Number(r.WasteStreamNumber),
			ProcessorID:       r.ProcessorID,
			Kilograms:         r.Kilograms,
			CarrierVIHB:       r.CarrierVIHB,
		}
	}
	return out, nil
}
