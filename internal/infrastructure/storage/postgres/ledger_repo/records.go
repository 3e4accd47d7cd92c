package ledger_repo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
)

// StampsRecord holds the audit columns shared by every ledger table.
type StampsRecord struct {
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	CreatedBy string    `db:"created_by"`
	UpdatedBy string    `db:"updated_by"`
}

func stampsToRecord(s entity.Stamps) StampsRecord {
	return StampsRecord{
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		CreatedBy: s.CreatedBy,
		UpdatedBy: s.UpdatedBy,
	}
}

func (r StampsRecord) stamps() entity.Stamps {
	return entity.Stamps{
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
	}
}

// JSONB columns are stored as their flat Fields form.

func encodeLocation(l location.Location) ([]byte, error) {
	return json.Marshal(location.Flatten(l))
}

func decodeLocation(raw []byte) (location.Location, error) {
	if len(raw) == 0 {
		return location.None{}, nil
	}
	var f location.Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	return f.Location()
}

func encodeParty(p party.Party) ([]byte, error) {
	return json.Marshal(party.Flatten(p))
}

func decodeParty(raw []byte) (party.Party, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var f party.Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode party: %w", err)
	}
	return f.Party()
}
