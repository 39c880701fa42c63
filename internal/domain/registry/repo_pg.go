package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ripac/ripac/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- Doctor Repository --

const doctorColumns = `id, organization_id, doctor_id, nick_name, full_name, address,
	phone_1, phone_2, is_active, created_at, updated_at`

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, organization_id, doctor_id, nick_name, full_name, address,
			phone_1, phone_2, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.OrganizationID, d.Code, d.NickName, d.FullName, d.Address,
		d.Phone1, d.Phone2, d.IsActive,
	)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Doctor, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (r *doctorRepoPG) GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*Doctor, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE organization_id = $1 AND doctor_id = $2`, orgID, code))
}

func (r *doctorRepoPG) ListByCodes(ctx context.Context, orgID uuid.UUID, codes []string) ([]*Doctor, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE organization_id = $1 AND doctor_id = ANY($2)`,
		orgID, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET
			doctor_id = $3, nick_name = $4, full_name = $5, address = $6,
			phone_1 = $7, phone_2 = $8, is_active = $9, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`,
		d.OrganizationID, d.ID, d.Code, d.NickName, d.FullName, d.Address,
		d.Phone1, d.Phone2, d.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM doctors WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Doctor, int, error) {
	where := ` WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		where += ` AND (full_name ILIKE $2 OR doctor_id ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors` + where + ` ORDER BY full_name`
	if search != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	doctors, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (r *doctorRepoPG) UpsertByCode(ctx context.Context, orgID uuid.UUID, code, fullName string) (*Doctor, bool, error) {
	existing, err := r.GetByCode(ctx, orgID, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		existing.FullName = fullName
		if err := r.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	d := &Doctor{OrganizationID: orgID, Code: code, FullName: fullName, IsActive: true}
	if err := r.Create(ctx, d); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func (r *doctorRepoPG) scan(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Code, &d.NickName, &d.FullName, &d.Address,
		&d.Phone1, &d.Phone2, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) collect(rows pgx.Rows) ([]*Doctor, error) {
	var doctors []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Code, &d.NickName, &d.FullName, &d.Address,
			&d.Phone1, &d.Phone2, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		doctors = append(doctors, &d)
	}
	return doctors, rows.Err()
}

// -- Patient Repository --

const patientColumns = `id, organization_id, mr_number, external_registration_no, full_name,
	phone, age, age_unit, nationality, sex, date_of_birth, current_address, created_at, updated_at`

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.AgeUnit == "" {
		p.AgeUnit = AgeYears
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, organization_id, mr_number, external_registration_no, full_name,
			phone, age, age_unit, nationality, sex, date_of_birth, current_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.OrganizationID, p.MRNumber, p.ExternalRegistrationNo, p.FullName,
		p.Phone, p.Age, p.AgeUnit, p.Nationality, nullIfEmpty(p.Sex), p.DateOfBirth, p.CurrentAddress,
	)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Patient, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (r *patientRepoPG) GetByMRNumber(ctx context.Context, orgID uuid.UUID, mrNumber string) (*Patient, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE organization_id = $1 AND mr_number = $2`, orgID, mrNumber))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			mr_number = $3, external_registration_no = $4, full_name = $5, phone = $6,
			age = $7, age_unit = $8, nationality = $9, sex = $10, date_of_birth = $11,
			current_address = $12, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`,
		p.OrganizationID, p.ID, p.MRNumber, p.ExternalRegistrationNo, p.FullName, p.Phone,
		p.Age, p.AgeUnit, p.Nationality, nullIfEmpty(p.Sex), p.DateOfBirth, p.CurrentAddress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patients WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Search(ctx context.Context, orgID uuid.UUID, query string, limit int) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientColumns+` FROM patients
		WHERE organization_id = $1 AND (full_name ILIKE $2 OR mr_number ILIKE $2)
		ORDER BY full_name LIMIT $3`,
		orgID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *patientRepoPG) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		where += ` AND (full_name ILIKE $2 OR mr_number ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientColumns + ` FROM patients` + where + ` ORDER BY full_name`
	if search != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *patientRepoPG) UpsertByMRNumber(ctx context.Context, orgID uuid.UUID, in PatientImport) (*Patient, bool, error) {
	existing, err := r.GetByMRNumber(ctx, orgID, in.MRNumber)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		existing.FullName = in.FullName
		if in.Address != "" {
			existing.CurrentAddress = in.Address
		}
		if in.Phone != "" {
			existing.Phone = in.Phone
		}
		if in.RegistrationNo != "" {
			existing.ExternalRegistrationNo = in.RegistrationNo
		}
		if err := r.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	p := &Patient{
		OrganizationID:         orgID,
		MRNumber:               in.MRNumber,
		FullName:               in.FullName,
		CurrentAddress:         in.Address,
		Phone:                  in.Phone,
		ExternalRegistrationNo: in.RegistrationNo,
	}
	if err := r.Create(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (r *patientRepoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	var sex *string
	err := row.Scan(&p.ID, &p.OrganizationID, &p.MRNumber, &p.ExternalRegistrationNo, &p.FullName,
		&p.Phone, &p.Age, &p.AgeUnit, &p.Nationality, &sex, &p.DateOfBirth, &p.CurrentAddress,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sex != nil {
		p.Sex = *sex
	}
	return &p, nil
}

func (r *patientRepoPG) collect(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		var p Patient
		var sex *string
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.MRNumber, &p.ExternalRegistrationNo, &p.FullName,
			&p.Phone, &p.Age, &p.AgeUnit, &p.Nationality, &sex, &p.DateOfBirth, &p.CurrentAddress,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if sex != nil {
			p.Sex = *sex
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
