package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/pkg/jsonstore"
)

// ErrStoreUnavailable is returned by operations that need the primary
// database while it is unreachable.
var ErrStoreUnavailable = errors.New("primary store unavailable")

// ErrDuplicate reports a unique constraint violation in either store.
var ErrDuplicate = errors.New("duplicate record")

// Availability reports whether the primary database can serve requests.
type Availability interface {
	Available() bool
}

// FallbackObserver is notified whenever a read is served from the JSON mirror.
type FallbackObserver interface {
	ObserveFallbackRead(entity string)
}

// JSON mirror file names under DATA_DIR.
const (
	FileStudents       = "students"
	FileAdmins         = "admins"
	FileMentors        = "mentors"
	FileRecruiters     = "recruiters"
	FileInternships    = "internships"
	FileApplications   = "applications"
	FileIPPs           = "ipps"
	FileNotifications  = "scheduled_notifications"
	FileAuditLogs      = "audit_logs"
	FileFacultyEvents  = "faculty_events"
	FileStudentEvents  = "student_events"
	FileAvailabilities = "availability"
)

// Sequence id prefixes.
const (
	PrefixStudent     = "STU"
	PrefixInternship  = "INT"
	PrefixApplication = "APP"
)

// IsNotFound reports whether err means "no such record" in either store.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, jsonstore.ErrNotFound)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// FormatSequenceID renders prefix followed by n padded to three digits.
func FormatSequenceID(prefix string, n int) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// SequenceNumber extracts the numeric suffix of a prefixed id, or 0.
func SequenceNumber(prefix, id string) int {
	re := sequencePattern(prefix)
	m := re.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func sequencePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "([0-9]+)$")
}

func maxSequence[T any](items []T, prefix string, id func(T) string) int {
	highest := 0
	for _, item := range items {
		if n := SequenceNumber(prefix, id(item)); n > highest {
			highest = n
		}
	}
	return highest
}

// dual carries the shared state of the database/JSON reconcilers.
type dual struct {
	entity       string
	availability Availability
	observer     FallbackObserver
	logger       *zap.Logger
}

func newDual(entity string, availability Availability, observer FallbackObserver, logger *zap.Logger) dual {
	if logger == nil {
		logger = zap.NewNop()
	}
	return dual{entity: entity, availability: availability, observer: observer, logger: logger}
}

// Available reports whether the primary database is reachable.
func (d dual) Available() bool {
	return d.availability != nil && d.availability.Available()
}

func (d dual) fallbackRead() {
	if d.observer != nil {
		d.observer.ObserveFallbackRead(d.entity)
	}
}

func (d dual) mirrorFailed(op, id string, err error) {
	if err == nil {
		return
	}
	d.logger.Warn("json mirror sync failed",
		zap.String("entity", d.entity),
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err),
	)
}

// readDual serves from the database when available and from the mirror
// otherwise.
func readDual[R any](d dual, primary func() (R, error), mirror func() (R, error)) (R, error) {
	if d.Available() {
		return primary()
	}
	d.fallbackRead()
	return mirror()
}

// writeDual writes to the database when available and mirrors best-effort;
// otherwise it writes to the mirror only.
func writeDual(d dual, op, id string, primary func() error, mirror func() error) error {
	if !d.Available() {
		return mirror()
	}
	if err := primary(); err != nil {
		return err
	}
	d.mirrorFailed(op, id, mirror())
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
