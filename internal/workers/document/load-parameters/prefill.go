package loadparameters

import (
	"context"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/models"

	"github.com/jmoiron/sqlx"
)

const queryLatestValues = `
SELECT v.parameter_id,
       COALESCE(v.value, '') AS value,
       COALESCE(v.memo, '')  AS memo
FROM document_parameter_values v
WHERE v.document_id = (
    SELECT d.id FROM documents d
    WHERE d.tax_id = $1 AND d.document_type_code = $2
    ORDER BY d.created_at DESC
    LIMIT 1
)`

// PrefillRepository reads parameter values of previously created documents.
type PrefillRepository struct {
	db *sqlx.DB
}

func NewPrefillRepository(db *sqlx.DB) *PrefillRepository {
	return &PrefillRepository{db: db}
}

type valueRow struct {
	ParameterID int    `db:"parameter_id"`
	Value       string `db:"value"`
	Memo        string `db:"memo"`
}

// LatestValues returns the parameter values of the entity's most recent
// document of the given type. No such document yields an empty map.
func (r *PrefillRepository) LatestValues(ctx context.Context, taxID, documentTypeCode string) (map[int]models.ParamValue, error) {
	var rows []valueRow
	if err := r.db.SelectContext(ctx, &rows, queryLatestValues, taxID, documentTypeCode); err != nil {
		return nil, errors.NewQueryExecutionFailedError("latest parameter values", err)
	}
	values := make(map[int]models.ParamValue, len(rows))
	for _, row := range rows {
		values[row.ParameterID] = models.ParamValue{Value: row.Value, Memo: row.Memo}
	}
	return values, nil
}
