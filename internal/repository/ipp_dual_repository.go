package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// DualIPPRepository reconciles passports between Postgres and ipps.json.
// Unlike the other reconcilers it reads both stores: a passport created while
// the database was down stays visible after recovery, and writes go back to
// the store the record was loaded from.
type DualIPPRepository struct {
	dual
	db     *IPPRepository
	mirror mirror[models.IPP]
}

// NewDualIPPRepository wires the passport reconciler.
func NewDualIPPRepository(db *IPPRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualIPPRepository {
	return &DualIPPRepository{
		dual:   newDual(FileIPPs, availability, observer, logger),
		db:     db,
		mirror: newMirror(dataDir, FileIPPs, func(p *models.IPP) string { return p.IPPID }),
	}
}

// FindByID tries the database first and substitutes the JSON record when the
// database has no match or is unreachable.
func (r *DualIPPRepository) FindByID(ctx context.Context, id string) (*models.IPP, error) {
	if r.Available() {
		ipp, err := r.db.FindByID(ctx, id)
		if err == nil {
			return ipp, nil
		}
		if !IsNotFound(err) {
			r.logger.Warn("ipp lookup failed, trying json mirror", zap.String("ipp_id", id), zap.Error(err))
		}
	}
	r.fallbackRead()
	ipp, err := r.mirror.find(id)
	if err != nil {
		return nil, err
	}
	ipp.Origin = models.OriginJSON
	return ipp, nil
}

// FindByCertificateID locates the passport that issued certificateID.
func (r *DualIPPRepository) FindByCertificateID(ctx context.Context, certificateID string) (*models.IPP, error) {
	if r.Available() {
		ipp, err := r.db.FindByCertificateID(ctx, certificateID)
		if err == nil {
			return ipp, nil
		}
		if !IsNotFound(err) {
			r.logger.Warn("certificate lookup failed, trying json mirror", zap.String("certificate_id", certificateID), zap.Error(err))
		}
	}
	r.fallbackRead()
	ipp, err := r.mirror.findBy(func(p *models.IPP) bool {
		return p.Certificate != nil && p.Certificate.CertificateID == certificateID
	})
	if err != nil {
		return nil, err
	}
	ipp.Origin = models.OriginJSON
	return ipp, nil
}

// List merges both stores keyed by ipp_id with the database winning, newest
// activity first.
func (r *DualIPPRepository) List(ctx context.Context, filter models.IPPFilter) ([]models.IPP, error) {
	merged, err := r.merged(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Recency().After(merged[j].Recency()) })
	return merged, nil
}

// ListByStudent merges both stores for one student, newest first by creation.
func (r *DualIPPRepository) ListByStudent(ctx context.Context, studentID string) ([]models.IPP, error) {
	merged, err := r.merged(ctx, models.IPPFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CreatedAt.After(merged[j].CreatedAt) })
	return merged, nil
}

func (r *DualIPPRepository) merged(ctx context.Context, filter models.IPPFilter) ([]models.IPP, error) {
	byID := make(map[string]models.IPP)
	var order []string

	if r.Available() {
		fromDB, err := r.db.List(ctx, filter)
		if err != nil {
			r.logger.Warn("list ipps from database", zap.Error(err))
		}
		for _, ipp := range fromDB {
			byID[ipp.IPPID] = ipp
			order = append(order, ipp.IPPID)
		}
	} else {
		r.fallbackRead()
	}

	fromJSON, err := r.mirror.filter(func(p *models.IPP) bool { return matchIPP(filter, p) })
	if err != nil {
		if len(order) == 0 {
			return nil, err
		}
		r.logger.Warn("list ipps from json mirror", zap.Error(err))
	}
	for _, ipp := range fromJSON {
		if _, ok := byID[ipp.IPPID]; ok {
			continue
		}
		ipp.Origin = models.OriginJSON
		byID[ipp.IPPID] = ipp
		order = append(order, ipp.IPPID)
	}

	out := make([]models.IPP, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

func matchIPP(filter models.IPPFilter, p *models.IPP) bool {
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.StudentID != "" && p.StudentID != filter.StudentID {
		return false
	}
	if filter.Company != "" {
		if p.InternshipDetails == nil || !strings.Contains(strings.ToLower(p.InternshipDetails.Company), strings.ToLower(filter.Company)) {
			return false
		}
	}
	return true
}

// Create inserts a passport into the active store.
func (r *DualIPPRepository) Create(ctx context.Context, ipp *models.IPP) error {
	stampIPP(ipp)
	if !r.Available() {
		if err := r.mirror.insert(ipp, nil); err != nil {
			return err
		}
		ipp.Origin = models.OriginJSON
		return nil
	}
	if err := r.db.Create(ctx, ipp); err != nil {
		return err
	}
	r.mirrorFailed("create", ipp.IPPID, r.mirror.upsert(ipp))
	return nil
}

// Save writes a passport back to the store it was loaded from and mirrors
// it best-effort. Records loaded from the database are written to the JSON
// file only while the database is down.
func (r *DualIPPRepository) Save(ctx context.Context, ipp *models.IPP) error {
	ipp.UpdatedAt = time.Now().UTC()
	if ipp.Origin == models.OriginJSON || !r.Available() {
		return r.mirror.upsert(ipp)
	}
	if err := r.db.Update(ctx, ipp); err != nil {
		return err
	}
	r.mirrorFailed("save", ipp.IPPID, r.mirror.upsert(ipp))
	return nil
}
