package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

type overviewStudentLister interface {
	ListEligible(ctx context.Context, departments []string, minCGPA float64, minSemester int) ([]models.Student, error)
}

type overviewInternshipLister interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error)
}

type overviewIPPLister interface {
	List(ctx context.Context, filter models.IPPFilter) ([]models.IPP, error)
}

// AnalyticsService builds the admin placement dashboard.
type AnalyticsService struct {
	students     overviewStudentLister
	internships  overviewInternshipLister
	applications applicationLister
	ipps         overviewIPPLister
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewAnalyticsService constructs an analytics service. cache and metrics may
// be nil.
func NewAnalyticsService(students overviewStudentLister, internships overviewInternshipLister, applications applicationLister, ipps overviewIPPLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		students:     students,
		internships:  internships,
		applications: applications,
		ipps:         ipps,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Overview returns the placement roll-up. The boolean reports a cache hit.
func (s *AnalyticsService) Overview(ctx context.Context) (models.PlacementOverview, bool, error) {
	overview, hit, err := Remember(ctx, s.cache, CacheKeyPlacementOverview, 0, func() (models.PlacementOverview, error) {
		return s.build(ctx)
	})
	if err != nil {
		return models.PlacementOverview{}, false, internalError(err, "failed to load placement overview")
	}
	return overview, hit, nil
}

func (s *AnalyticsService) build(ctx context.Context) (models.PlacementOverview, error) {
	students, err := s.students.ListEligible(ctx, nil, 0, 0)
	if err != nil {
		return models.PlacementOverview{}, err
	}
	internships, err := s.internships.List(ctx, models.InternshipFilter{})
	if err != nil {
		return models.PlacementOverview{}, err
	}
	apps, err := s.applications.List(ctx, models.ApplicationFilter{})
	if err != nil {
		return models.PlacementOverview{}, err
	}

	overview := models.PlacementOverview{
		Students:     len(students),
		ByDepartment: map[string]int{},
		Internships:  internshipStats(internships),
		Applications: applicationAnalytics(apps),
		IPPs:         map[string]int{},
		GeneratedAt:  s.now().UTC(),
	}
	for _, st := range students {
		if st.PlacementStatus == models.PlacementPlaced {
			overview.Placed++
		}
		if st.Department != "" {
			overview.ByDepartment[st.Department]++
		}
	}
	overview.Unplaced = overview.Students - overview.Placed
	if overview.Students > 0 {
		overview.PlacementPct = math.Round(float64(overview.Placed)/float64(overview.Students)*10000) / 100
	}

	if s.ipps != nil {
		ipps, err := s.ipps.List(ctx, models.IPPFilter{})
		if err != nil {
			s.logger.Warn("overview ipp counts", zap.Error(err))
		}
		for _, ipp := range ipps {
			overview.IPPs[string(ipp.Status)]++
		}
	}
	return overview, nil
}

// SystemMetrics exposes the instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
