package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no lab report matches the query.
var ErrNotFound = errors.New("lab report not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const reportCols = `id, subject_id, category, file_name, artifact_id, uploaded_by, created_at`

func scanReport(row pgx.Row) (*LabReport, error) {
	var r LabReport
	err := row.Scan(&r.ID, &r.SubjectID, &r.Category, &r.FileName, &r.ArtifactID,
		&r.UploadedBy, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateBatch inserts all rows in one transaction so a multi-file upload
// is recorded completely or not at all.
func (r *repoPG) CreateBatch(ctx context.Context, reports []*LabReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, rep := range reports {
		rep.ID = uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO lab_report (id, subject_id, category, file_name, artifact_id, uploaded_by)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			rep.ID, rep.SubjectID, rep.Category, rep.FileName, rep.ArtifactID, rep.UploadedBy); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM lab_report WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lab_report WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_report WHERE subject_id = $1`, subjectID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportCols+` FROM lab_report WHERE subject_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		subjectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}
