package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/telehealth-coordination/internal/db"
)

type PgRepository struct {
	conn db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{conn: conn}
}

const doctorColumns = `id, COALESCE(external_id, ''), name, specialty, email, phone, license_number,
	experience, education, about, image, languages, availability, consultation_fee,
	rating, total_reviews, status, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var status string

	err := row.Scan(
		&d.ID,
		&d.ExternalID,
		&d.Name,
		&d.Specialty,
		&d.Email,
		&d.Phone,
		&d.LicenseNumber,
		&d.Experience,
		&d.Education,
		&d.About,
		&d.Image,
		&d.Languages,
		&d.Availability,
		&d.ConsultationFee,
		&d.Rating,
		&d.TotalReviews,
		&status,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Status = Status(status)
	return &d, nil
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) error {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO doctors (id, external_id, name, specialty, email, phone, license_number,
			experience, education, about, image, languages, availability, consultation_fee,
			rating, total_reviews, status, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
		RETURNING created_at, updated_at
	`, d.ID, d.ExternalID, d.Name, d.Specialty, d.Email, d.Phone, d.LicenseNumber,
		d.Experience, d.Education, d.About, d.Image, d.Languages, d.Availability,
		d.ConsultationFee, d.Rating, d.TotalReviews, string(d.Status))

	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateDoctor
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetByExternalID(ctx context.Context, externalID string) (*Doctor, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE external_id = $1`, externalID)
	return scanDoctor(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE email = $1`, email)
	return scanDoctor(row)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]Doctor, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE status = 'active'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Update(ctx context.Context, id string, u Update) (*Doctor, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	row := r.conn.QueryRow(ctx, `
		UPDATE doctors SET
			name             = COALESCE($2, name),
			specialty        = COALESCE($3, specialty),
			phone            = COALESCE($4, phone),
			license_number   = COALESCE($5, license_number),
			experience       = COALESCE($6, experience),
			education        = COALESCE($7, education),
			about            = COALESCE($8, about),
			image            = COALESCE($9, image),
			languages        = COALESCE($10, languages),
			availability     = COALESCE($11, availability),
			consultation_fee = COALESCE($12, consultation_fee),
			status           = COALESCE($13, status),
			updated_at       = now()
		WHERE id = $1
		RETURNING `+doctorColumns,
		id, u.Name, u.Specialty, u.Phone, u.LicenseNumber, u.Experience, u.Education,
		u.About, u.Image, u.Languages, u.Availability, u.ConsultationFee, status)

	return scanDoctor(row)
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) CountByStatus(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.conn.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'active'),
		       count(*) FILTER (WHERE status = 'inactive')
		FROM doctors
	`).Scan(&s.Total, &s.Active, &s.Inactive)
	if err != nil {
		return Stats{}, fmt.Errorf("count doctors: %w", err)
	}
	return s, nil
}
