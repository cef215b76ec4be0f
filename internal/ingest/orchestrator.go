package ingest

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/zivkovicn/vestnik/internal/cache"
	"github.com/zivkovicn/vestnik/internal/feed"
	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/models"
	"github.com/zivkovicn/vestnik/internal/utils"
)

// OrchestratorConfig tunes batch assembly and concurrency.
type OrchestratorConfig struct {
	FeedURLs     []string
	DefaultLimit int
	MaxLimit     int
	PerSourceCap int
	ChunkSize    int
	SeenTTL      time.Duration
}

// Report aggregates one ingest run. Results carries the per-group outcomes
// so callers are not limited to the counters.
type Report struct {
	Created int       `json:"created"`
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
	DryRun  bool      `json:"dry_run,omitempty"`
	Results []Outcome `json:"results,omitempty"`

	// Sample holds the selected groups of a dry run, where no writes and no
	// AI calls happen.
	Sample []models.Group `json:"sample,omitempty"`
}

// Orchestrator drives a full ingest run: fetch, select, then process groups
// in bounded concurrent windows with settle-all semantics.
type Orchestrator struct {
	source   feed.Source
	pipeline *Pipeline
	seen     cache.SeenGuard
	cfg      OrchestratorConfig
	newRand  func() *rand.Rand
}

func NewOrchestrator(source feed.Source, pipeline *Pipeline, seen cache.SeenGuard, cfg OrchestratorConfig) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 3
	}
	return &Orchestrator{
		source:   source,
		pipeline: pipeline,
		seen:     seen,
		cfg:      cfg,
		newRand:  func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// SetRandSource injects a deterministic shuffle source. Used by tests.
func (o *Orchestrator) SetRandSource(newRand func() *rand.Rand) { o.newRand = newRand }

// ClampLimit applies the default and the hard cap to a requested batch size.
func (o *Orchestrator) ClampLimit(limit int) int {
	if limit <= 0 {
		return o.cfg.DefaultLimit
	}
	if limit > o.cfg.MaxLimit {
		return o.cfg.MaxLimit
	}
	return limit
}

// Run executes one ingest cycle. Groups are processed in windows of
// ChunkSize; the orchestrator waits for a whole window, collecting successes
// and failures alike, before dispatching the next one. One group's failure
// never aborts its siblings or the run.
func (o *Orchestrator) Run(ctx context.Context, limit int, dryRun bool) (*Report, error) {
	log := logger.Get()
	start := time.Now()
	limit = o.ClampLimit(limit)

	feeds := o.source.FetchAll(ctx, o.cfg.FeedURLs)
	groups := feed.SelectGroups(feeds, limit, o.cfg.PerSourceCap, o.newRand())

	log.Info().
		Int("feeds", len(feeds)).
		Int("groups", len(groups)).
		Int("limit", limit).
		Bool("dry_run", dryRun).
		Msg("Starting ingest run")

	if dryRun {
		return &Report{DryRun: true, Sample: groups}, nil
	}

	report := &Report{}
	var mu sync.Mutex

	record := func(outcome Outcome) {
		mu.Lock()
		defer mu.Unlock()
		report.Results = append(report.Results, outcome)
		switch outcome.Kind {
		case OutcomeCreated:
			report.Created++
		case OutcomeUpdated:
			report.Updated++
		case OutcomeFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	for _, chunk := range lo.Chunk(groups, o.cfg.ChunkSize) {
		var wg sync.WaitGroup
		for _, g := range chunk {
			wg.Add(1)
			go func(g models.Group) {
				defer wg.Done()
				record(o.processGuarded(ctx, g))
			}(g)
		}
		wg.Wait()
	}

	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("Finished ingest run")

	return report, nil
}

// processGuarded wraps ProcessGroup with the seen-guard fast path and turns
// errors into failed outcomes instead of propagating them.
func (o *Orchestrator) processGuarded(ctx context.Context, g models.Group) Outcome {
	log := logger.Get()
	hash := utils.Hash(g.CanonicalLink)

	if o.seen != nil {
		seen, err := o.seen.Seen(ctx, hash)
		if err != nil {
			// Guard trouble only costs the fast path, the database dedup
			// still runs.
			log.Warn().Err(err).Msg("Seen-guard lookup failed")
		} else if seen {
			return Outcome{
				CanonicalLink: g.CanonicalLink,
				Title:         g.First().Title,
				Kind:          OutcomeSkipped,
				Reason:        "recently processed",
			}
		}
	}

	outcome, err := o.pipeline.ProcessGroup(ctx, g)
	if err != nil {
		log.Error().
			Err(err).
			Str("canonical_link", g.CanonicalLink).
			Msg("Group processing failed")
		return Outcome{
			CanonicalLink: g.CanonicalLink,
			Title:         g.First().Title,
			Kind:          OutcomeFailed,
			Reason:        err.Error(),
		}
	}

	if o.seen != nil && (outcome.Kind == OutcomeCreated || outcome.Kind == OutcomeUpdated) {
		if err := o.seen.MarkSeen(ctx, hash, o.cfg.SeenTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to mark group as seen")
		}
	}

	return outcome
}

// InQuietHours reports whether t falls inside the blackout window in the
// given location. The window may wrap past midnight.
func InQuietHours(t time.Time, loc *time.Location, startHour, endHour int) bool {
	if startHour == endHour {
		return false
	}
	h := t.In(loc).Hour()
	if startHour < endHour {
		return h >= startHour && h < endHour
	}
	return h >= startHour || h < endHour
}
