package subject

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no subject matches the query.
var ErrNotFound = errors.New("subject not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const subjectCols = `id, external_id, full_name, gender, birth_date, phone, email, address,
	created_at, updated_at`

func scanSubject(row pgx.Row) (*Subject, error) {
	var s Subject
	err := row.Scan(&s.ID, &s.ExternalID, &s.FullName, &s.Gender, &s.BirthDate, &s.Phone,
		&s.Email, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Subject) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subject (id, external_id, full_name, gender, birth_date, phone, email, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.ExternalID, s.FullName, s.Gender, s.BirthDate, s.Phone, s.Email, s.Address)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Subject, error) {
	return scanSubject(r.pool.QueryRow(ctx, `SELECT `+subjectCols+` FROM subject WHERE id = $1`, id))
}

func (r *repoPG) GetByExternalID(ctx context.Context, externalID string) (*Subject, error) {
	return scanSubject(r.pool.QueryRow(ctx,
		`SELECT `+subjectCols+` FROM subject WHERE external_id = $1`, externalID))
}

func (r *repoPG) Update(ctx context.Context, s *Subject) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subject SET external_id=$2, full_name=$3, gender=$4, birth_date=$5,
			phone=$6, email=$7, address=$8, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.ExternalID, s.FullName, s.Gender, s.BirthDate, s.Phone, s.Email, s.Address)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subject WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Subject, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subject`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+subjectCols+` FROM subject ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
