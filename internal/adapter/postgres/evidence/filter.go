package evidence

import (
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildListQuery builds the SELECT for List. The tenant predicate is always first.
func buildListQuery(tenantID string, f domain.EvidenceFilter) (string, []any, error) {
	query := applyFilter(psql.Select(columns).From("evidence_records"), tenantID, f).
		OrderBy("ingested_at DESC", "evidence_id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	return query.ToSql()
}

// buildCountQuery builds the COUNT(*) for Count with the same predicates as List.
func buildCountQuery(tenantID string, f domain.EvidenceFilter) (string, []any, error) {
	query := applyFilter(psql.Select("COUNT(*)").From("evidence_records"), tenantID, f)
	return query.ToSql()
}

func applyFilter(b sq.SelectBuilder, tenantID string, f domain.EvidenceFilter) sq.SelectBuilder {
	b = b.Where(sq.Eq{"tenant_id": tenantID})

	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		b = b.Where(sq.Eq{"ledger_state": states})
	}
	if f.ExcludeQuarantined {
		b = b.Where(sq.NotEq{"ledger_state": string(domain.LedgerStateQuarantined)})
	}
	if f.Method != nil {
		b = b.Where(sq.Eq{"ingestion_method": string(*f.Method)})
	}
	if f.PurposeTag != nil {
		b = b.Where(sq.Expr("purpose_tags @> ARRAY[?]::text[]", string(*f.PurposeTag)))
	}
	if f.IngestedFrom != nil {
		b = b.Where(sq.GtOrEq{"ingested_at": *f.IngestedFrom})
	}
	if f.IngestedTo != nil {
		b = b.Where(sq.Lt{"ingested_at": *f.IngestedTo})
	}

	return b
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
