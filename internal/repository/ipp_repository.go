package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const ippColumns = `ipp_id, student_id, internship_id, application_id, internship_details, company_mentor_evaluation,
        student_submission, faculty_assessment, verification, summary, certificate, sharing, skill_assessment,
        mentor_access_token, mentor_access_expiry, mentor_access_used_at, status, published_at, created_at, updated_at`

// IPPRepository persists internship performance passports in Postgres.
type IPPRepository struct {
	db *sqlx.DB
}

// NewIPPRepository constructs an IPPRepository.
func NewIPPRepository(db *sqlx.DB) *IPPRepository {
	return &IPPRepository{db: db}
}

// List returns passports filtered by status and student.
func (r *IPPRepository) List(ctx context.Context, filter models.IPPFilter) ([]models.IPP, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Company != "" {
		args = append(args, "%"+strings.ToLower(filter.Company)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(internship_details->>'company') LIKE $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM ipps", ippColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(updated_at, created_at) DESC"

	var ipps []models.IPP
	if err := r.db.SelectContext(ctx, &ipps, query, args...); err != nil {
		return nil, fmt.Errorf("list ipps: %w", err)
	}
	for i := range ipps {
		ipps[i].Origin = models.OriginDatabase
	}
	return ipps, nil
}

// FindByID fetches a passport by id.
func (r *IPPRepository) FindByID(ctx context.Context, id string) (*models.IPP, error) {
	ipp, err := getOne[models.IPP](ctx, r.db, "ipps", ippColumns, "ipp_id = $1", id)
	if err != nil {
		return nil, err
	}
	ipp.Origin = models.OriginDatabase
	return ipp, nil
}

// FindByCertificateID fetches the passport that issued a certificate.
func (r *IPPRepository) FindByCertificateID(ctx context.Context, certificateID string) (*models.IPP, error) {
	ipp, err := getOne[models.IPP](ctx, r.db, "ipps", ippColumns, "certificate->>'certificateId' = $1", certificateID)
	if err != nil {
		return nil, err
	}
	ipp.Origin = models.OriginDatabase
	return ipp, nil
}

// Create inserts a passport.
func (r *IPPRepository) Create(ctx context.Context, ipp *models.IPP) error {
	stampIPP(ipp)
	const query = `INSERT INTO ipps (ipp_id, student_id, internship_id, application_id, internship_details,
        company_mentor_evaluation, student_submission, faculty_assessment, verification, summary, certificate, sharing,
        skill_assessment, mentor_access_token, mentor_access_expiry, mentor_access_used_at, status, published_at,
        created_at, updated_at)
        VALUES (:ipp_id, :student_id, :internship_id, :application_id, :internship_details,
        :company_mentor_evaluation, :student_submission, :faculty_assessment, :verification, :summary, :certificate, :sharing,
        :skill_assessment, :mentor_access_token, :mentor_access_expiry, :mentor_access_used_at, :status, :published_at,
        :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ipp); err != nil {
		return fmt.Errorf("create ipp: %w", err)
	}
	ipp.Origin = models.OriginDatabase
	return nil
}

// Update overwrites the mutable columns of a passport.
func (r *IPPRepository) Update(ctx context.Context, ipp *models.IPP) error {
	const query = `UPDATE ipps SET internship_details = :internship_details,
        company_mentor_evaluation = :company_mentor_evaluation, student_submission = :student_submission,
        faculty_assessment = :faculty_assessment, verification = :verification, summary = :summary,
        certificate = :certificate, sharing = :sharing, skill_assessment = :skill_assessment,
        mentor_access_token = :mentor_access_token, mentor_access_expiry = :mentor_access_expiry,
        mentor_access_used_at = :mentor_access_used_at, status = :status, published_at = :published_at,
        updated_at = :updated_at
        WHERE ipp_id = :ipp_id`
	res, err := r.db.NamedExecContext(ctx, query, ipp)
	if err != nil {
		return fmt.Errorf("update ipp: %w", err)
	}
	return expectAffected(res)
}

func stampIPP(ipp *models.IPP) {
	now := time.Now().UTC()
	if ipp.CreatedAt.IsZero() {
		ipp.CreatedAt = now
	}
	ipp.UpdatedAt = now
}
