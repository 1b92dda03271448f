package prescription

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no prescription matches the query.
var ErrNotFound = errors.New("prescription not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const prescriptionCols = `id, subject_id, doctor_id, appointment_id, kind, diagnosis, notes,
	drug_list, patient_info, expiry_date, signature_type, signature_data, signed_at,
	artifact_id, created_by, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var drugList, patientInfo []byte
	err := row.Scan(&p.ID, &p.SubjectID, &p.DoctorID, &p.AppointmentID, &p.Kind, &p.Diagnosis,
		&p.Notes, &drugList, &patientInfo, &p.ExpiryDate, &p.SignatureType, &p.SignatureData,
		&p.SignedAt, &p.ArtifactID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(drugList) > 0 {
		if err := json.Unmarshal(drugList, &p.DrugList); err != nil {
			return nil, err
		}
	}
	if len(patientInfo) > 0 {
		if err := json.Unmarshal(patientInfo, &p.PatientInfo); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	drugList, err := json.Marshal(p.DrugList)
	if err != nil {
		return err
	}
	patientInfo, err := json.Marshal(p.PatientInfo)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO prescription (id, subject_id, doctor_id, appointment_id, kind, diagnosis,
			notes, drug_list, patient_info, expiry_date, signature_type, signature_data,
			signed_at, artifact_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.SubjectID, p.DoctorID, p.AppointmentID, p.Kind, p.Diagnosis, p.Notes,
		drugList, patientInfo, p.ExpiryDate, p.SignatureType, p.SignatureData, p.SignedAt,
		p.ArtifactID, p.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescription`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescription ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE subject_id = $1`, subjectID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE subject_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		subjectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]*Prescription, int, error) {
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
