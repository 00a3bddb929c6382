package forecast

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// BatchFetcher produces the raw forecast entries for one run.
type BatchFetcher interface {
	FetchAll(ctx context.Context, locations []Location) ([]RawEntry, error)
}

// Store is the contract any persistent record store must satisfy. Load on a
// store that does not exist yet returns an empty set, not an error.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Persist(ctx context.Context, records []Record) error
}

// Summary describes one completed run.
type Summary struct {
	RunID      string
	Fetched    int
	Normalized int
	Persisted  int
	Elapsed    time.Duration
}

// Service runs the fetch -> normalize -> merge -> persist pipeline once.
type Service struct {
	fetcher   BatchFetcher
	store     Store
	locations []Location
	dryRun    bool
	now       func() time.Time
}

func NewService(fetcher BatchFetcher, store Store, locations []Location, dryRun bool) *Service {
	return &Service{
		fetcher:   fetcher,
		store:     store,
		locations: locations,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// Run executes one batch. An empty post-fetch batch is a successful no-op
// that never touches the store; the read-modify-write otherwise either
// completes in full or leaves the store as it was.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	start := s.now()
	sum := Summary{RunID: uuid.NewString()}

	log.Printf("run %s: fetching forecasts for %d locations", sum.RunID, len(s.locations))
	entries, err := s.fetcher.FetchAll(ctx, s.locations)
	if err != nil {
		return sum, err
	}
	sum.Fetched = len(entries)

	records, err := Normalize(entries, s.now())
	if err != nil {
		return sum, err
	}
	sum.Normalized = len(records)

	if len(records) == 0 {
		log.Printf("run %s: nothing fetched; store left untouched", sum.RunID)
		sum.Elapsed = s.now().Sub(start)
		return sum, nil
	}

	if s.dryRun {
		log.Printf("run %s: dry run, skipping merge and persist of %d records", sum.RunID, len(records))
		sum.Elapsed = s.now().Sub(start)
		return sum, nil
	}

	existing, err := s.store.Load(ctx)
	if err != nil {
		return sum, err
	}

	merged := Merge(existing, records)
	if err := s.store.Persist(ctx, merged); err != nil {
		return sum, err
	}
	sum.Persisted = len(merged)
	sum.Elapsed = s.now().Sub(start)

	log.Printf("run %s: persisted %d records (%d existing, %d new)", sum.RunID, len(merged), len(existing), len(records))
	return sum, nil
}
