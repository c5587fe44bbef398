package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/database"
	"github.com/noah-isme/campus-placement-api/pkg/jsonstore"
)

// drift lists the ids that differ between the two stores for one entity.
type drift struct {
	Entity    string
	OnlyDB    []string
	OnlyJSON  []string
	Different []string
}

func (d drift) clean() bool {
	return len(d.OnlyDB) == 0 && len(d.OnlyJSON) == 0 && len(d.Different) == 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		dataDir  string
		entities []string
		timeout  time.Duration
		verbose  bool
	)
	pflag.StringVar(&dataDir, "data-dir", cfg.DataDir, "JSON mirror directory")
	pflag.StringSliceVar(&entities, "entities", []string{"internships", "applications", "ipps"}, "entities to compare")
	pflag.DurationVar(&timeout, "timeout", 30*time.Second, "overall query timeout")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "list every drifting id")
	pflag.Parse()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("postgres unavailable: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var reports []drift
	for _, entity := range entities {
		var (
			report drift
			err    error
		)
		switch strings.ToLower(strings.TrimSpace(entity)) {
		case "internships":
			report, err = compareInternships(ctx, repository.NewInternshipRepository(db), dataDir)
		case "applications":
			report, err = compareApplications(ctx, repository.NewApplicationRepository(db), dataDir)
		case "ipps":
			report, err = compareIPPs(ctx, repository.NewIPPRepository(db), dataDir)
		default:
			log.Fatalf("unknown entity %q", entity)
		}
		if err != nil {
			log.Fatalf("compare %s: %v", entity, err)
		}
		reports = append(reports, report)
	}

	drifting := printReport(reports, verbose)
	if drifting > 0 {
		os.Exit(1)
	}
}

func compareInternships(ctx context.Context, repo *repository.InternshipRepository, dir string) (drift, error) {
	rows, err := repo.List(ctx, models.InternshipFilter{})
	if err != nil {
		return drift{}, err
	}
	mirror, err := jsonstore.Open[models.Internship](dir, repository.FileInternships).Load()
	if err != nil {
		return drift{}, err
	}
	key := func(i models.Internship) string { return i.ID }
	stamp := func(i models.Internship) time.Time { return i.UpdatedAt }
	return diff("internships", rows, mirror, key, stamp), nil
}

func compareApplications(ctx context.Context, repo *repository.ApplicationRepository, dir string) (drift, error) {
	rows, err := repo.List(ctx, models.ApplicationFilter{})
	if err != nil {
		return drift{}, err
	}
	mirror, err := jsonstore.Open[models.Application](dir, repository.FileApplications).Load()
	if err != nil {
		return drift{}, err
	}
	key := func(a models.Application) string { return a.ID }
	stamp := func(a models.Application) time.Time { return a.UpdatedAt }
	return diff("applications", rows, mirror, key, stamp), nil
}

func compareIPPs(ctx context.Context, repo *repository.IPPRepository, dir string) (drift, error) {
	rows, err := repo.List(ctx, models.IPPFilter{})
	if err != nil {
		return drift{}, err
	}
	mirror, err := jsonstore.Open[models.IPP](dir, repository.FileIPPs).Load()
	if err != nil {
		return drift{}, err
	}
	key := func(p models.IPP) string { return p.IPPID }
	stamp := func(p models.IPP) time.Time { return p.Recency() }
	return diff("ipps", rows, mirror, key, stamp), nil
}

// diff matches records by key and flags pairs whose timestamps disagree at
// second precision.
func diff[T any](entity string, db, mirror []T, key func(T) string, stamp func(T) time.Time) drift {
	out := drift{Entity: entity}
	mirrored := make(map[string]T, len(mirror))
	for _, item := range mirror {
		mirrored[key(item)] = item
	}
	for _, row := range db {
		id := key(row)
		other, ok := mirrored[id]
		if !ok {
			out.OnlyDB = append(out.OnlyDB, id)
			continue
		}
		delete(mirrored, id)
		if !stamp(row).Truncate(time.Second).Equal(stamp(other).Truncate(time.Second)) {
			out.Different = append(out.Different, id)
		}
	}
	for id := range mirrored {
		out.OnlyJSON = append(out.OnlyJSON, id)
	}
	sort.Strings(out.OnlyDB)
	sort.Strings(out.OnlyJSON)
	sort.Strings(out.Different)
	return out
}

func printReport(reports []drift, verbose bool) int {
	drifting := 0
	for _, r := range reports {
		status := "OK"
		if !r.clean() {
			status = "DRIFT"
			drifting++
		}
		fmt.Printf("[%s] %s: only-db=%d only-json=%d different=%d\n", status, r.Entity, len(r.OnlyDB), len(r.OnlyJSON), len(r.Different))
		if verbose {
			printIDs("only in postgres", r.OnlyDB)
			printIDs("only in json", r.OnlyJSON)
			printIDs("different", r.Different)
		}
	}
	fmt.Printf("Drifting entities: %d of %d\n", drifting, len(reports))
	return drifting
}

func printIDs(label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Printf("  %s: %s\n", label, strings.Join(ids, ", "))
}
