package content

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/brandinfo"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/metrics"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Service runs the generation batch for a site.
type Service struct {
	Store   *store.Store
	Gen     Generator
	Workers int
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// NewService constructs a Service; workers defaults to 5, metrics to noop.
func NewService(st *store.Store, gen Generator, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: st, Gen: gen, Workers: workers, Metrics: metrics.NoopRecorder{}, Logger: logger}
}

// BatchResult reports what a batch run did.
type BatchResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

type task struct {
	page   store.PageView
	prompt string
}

type outcome struct {
	pageID  int64
	hadNote bool
	content string
	err     error
}

// RunBatch generates content for a site's pages in three phases: prompts are
// built synchronously, dispatch runs on a bounded worker pool with no shared
// state, and persistence runs synchronously afterwards, committing every
// success before any failure is reported. The first error encountered is the
// one returned.
func (s *Service) RunBatch(ctx context.Context, siteID int64, onlyNew bool) (*BatchResult, error) {
	g, err := s.Store.LoadSiteGraph(ctx, siteID)
	if err != nil {
		return nil, err
	}
	brands := brandinfo.MergeAll(g.Brands)

	// Phase 1: synchronous prompt build.
	var tasks []task
	for _, page := range g.Pages {
		if onlyNew && page.IsGenerated {
			continue
		}
		tasks = append(tasks, task{page: page, prompt: BuildPrompt(g, page, brands)})
	}
	res := &BatchResult{Attempted: len(tasks)}
	if len(tasks) == 0 {
		return res, nil
	}

	// Phase 2: concurrent dispatch. Workers only call the generator; all
	// database access stays on this goroutine.
	outcomes := make([]outcome, len(tasks))
	sem := make(chan struct{}, s.Workers)
	var inFlight atomic.Int64
	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func(i int, tk task) {
			defer wg.Done()
			sem <- struct{}{}
			s.Metrics.SetGenerationConcurrency(int(inFlight.Add(1)))
			defer func() {
				s.Metrics.SetGenerationConcurrency(int(inFlight.Add(-1)))
				<-sem
			}()
			content, err := s.Gen.Generate(ctx, tk.prompt)
			outcomes[i] = outcome{
				pageID:  tk.page.ID,
				hadNote: tk.page.RegenerationNote != "",
				content: content,
				err:     err,
			}
		}(i, tk)
	}
	wg.Wait()

	// Phase 3: synchronous persistence. Successes commit even when other
	// pages failed.
	now := time.Now()
	var firstErr error
	for _, o := range outcomes {
		if o.err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = o.err
			}
			s.Logger.Warn("page generation failed",
				logfields.SiteID(siteID), logfields.PageID(o.pageID), logfields.Error(o.err))
			continue
		}
		if err := s.Store.SetPageContent(ctx, o.pageID, o.content, now); err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if o.hadNote {
			// The note shaped this generation; archive it by clearing.
			if err := s.Store.ClearRegenerationNote(ctx, o.pageID); err != nil {
				s.Logger.Warn("clear regeneration note failed",
					logfields.PageID(o.pageID), logfields.Error(err))
			}
		}
		res.Succeeded++
	}

	s.Logger.Info("generation batch finished",
		logfields.SiteID(siteID),
		slog.Int("attempted", res.Attempted),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed))
	return res, firstErr
}
