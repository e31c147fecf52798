package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "confluence-lifecycle/internal/common"
	. "confluence-lifecycle/internal/interfaces"
	"confluence-lifecycle/internal/lifecycle"
	"confluence-lifecycle/internal/models"

	"github.com/ternarybob/arbor"
)

// SpaceWalker iterates the pages of a space, classifies each one by
// last-modified age and reconciles its lifecycle label.
type SpaceWalker struct {
	config *Config
	client ConfluenceClient
	logger arbor.ILogger

	labels     models.LabelSet
	thresholds models.Thresholds

	// now is swappable for tests
	now func() time.Time
}

// pageState is the per-page working set: the listed page, its labels as
// fetched, and the result being assembled.
type pageState struct {
	page   models.Page
	labels []models.Label
	result models.ProcessResult
}

func NewSpaceWalker(config *Config, client ConfluenceClient) *SpaceWalker {
	return &SpaceWalker{
		config: config,
		client: client,
		logger: GetLogger(),
		labels: models.LabelSet{
			Fresh:  config.Lifecycle.FreshLabel,
			Stale:  config.Lifecycle.StaleLabel,
			Rotten: config.Lifecycle.RottenLabel,
		},
		thresholds: models.Thresholds{
			StaleDays:  config.Lifecycle.StaleDays,
			RottenDays: config.Lifecycle.RottenDays,
		},
		now: time.Now,
	}
}

// Walk runs one complete pass over the configured space. A failure to
// list the space is fatal; failures on individual pages are recorded in
// that page's result and the walk continues.
func (w *SpaceWalker) Walk(ctx context.Context) (*models.RunRecord, error) {
	startedAt := w.now()

	pages, err := w.discoverPages(ctx)
	if err != nil {
		return nil, err
	}

	w.logger.Info().
		Str("space", w.config.Lifecycle.Space).
		Int("pages", len(pages)).
		Msg("Space discovery complete")

	states := w.collectStates(ctx, pages)

	if w.config.Lifecycle.ReadOnly {
		w.logger.Info().Msg("Read-only mode enabled, no labels will be applied")
	} else {
		w.applyLabels(ctx, states)
	}

	run := &models.RunRecord{
		Space:      w.config.Lifecycle.Space,
		StartedAt:  startedAt,
		FinishedAt: w.now(),
		ReadOnly:   w.config.Lifecycle.ReadOnly,
		Thresholds: w.thresholds,
		Results:    make([]models.ProcessResult, 0, len(states)),
	}

	for i := range states {
		result := states[i].result
		run.Results = append(run.Results, result)

		if result.Error != "" {
			run.Stats.Errors++
			continue
		}
		run.Stats.Pages.Add(result.Phase)
		if result.Changed {
			run.Stats.Changed.Add(result.Phase)
		}
		if result.Ignored {
			run.Stats.Ignored.Add(result.Phase)
		}
	}

	w.logger.Info().
		Int("fresh", run.Stats.Pages.Fresh).
		Int("stale", run.Stats.Pages.Stale).
		Int("rotten", run.Stats.Pages.Rotten).
		Int("errors", run.Stats.Errors).
		Msg("Walk complete")

	return run, nil
}

// discoverPages pages through the space listing until MaxPages pages
// have been collected or the space is exhausted.
func (w *SpaceWalker) discoverPages(ctx context.Context) ([]models.Page, error) {
	maxPages := w.config.Lifecycle.MaxPages
	limit := w.config.Lifecycle.PageLimit
	if limit > maxPages {
		limit = maxPages
	}

	var pages []models.Page
	start := 0

	for len(pages) < maxPages {
		list, err := w.client.GetSpacePages(ctx, w.config.Lifecycle.Space, start, limit)
		if err != nil {
			return nil, WrapError(err, ErrorTypePageList, "DISCOVER",
				fmt.Sprintf("failed to list pages in space %s", w.config.Lifecycle.Space))
		}

		if len(list.Results) == 0 {
			break
		}

		pages = append(pages, list.Results...)
		start += limit

		w.logger.Debug().
			Int("batch", len(list.Results)).
			Int("total", len(pages)).
			Msg("Fetched page batch")
	}

	if len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	return pages, nil
}

// collectStates fetches history and labels for every page with a bounded
// worker pool and classifies each page. Results keep listing order.
func (w *SpaceWalker) collectStates(ctx context.Context, pages []models.Page) []pageState {
	states := make([]pageState, len(pages))
	now := w.now()

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.config.Lifecycle.Workers)

	for i := range pages {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			states[i] = w.collectState(ctx, pages[i], now)
		}(i)
	}

	wg.Wait()
	return states
}

func (w *SpaceWalker) collectState(ctx context.Context, page models.Page, now time.Time) pageState {
	state := pageState{
		page: page,
		result: models.ProcessResult{
			PageID: page.ID,
			Title:  page.Title,
		},
	}

	lastModified, editedBy, err := w.lastModified(ctx, page)
	if err != nil {
		state.result.Error = err.Error()
		return state
	}
	state.result.LastModified = lastModified
	state.result.LastEditedBy = editedBy

	labels, err := w.client.GetPageLabels(ctx, page.ID)
	if err != nil {
		state.result.Error = err.Error()
		return state
	}
	state.labels = labels

	state.result.Phase = lifecycle.Classify(lastModified, now, w.thresholds)
	state.result.NewLabel = w.labels.For(state.result.Phase)

	for _, label := range labels {
		if _, ok := w.labels.Phase(label.Name); ok && state.result.PreviousLabel == "" {
			state.result.PreviousLabel = label.Name
		}
		if lifecycle.IsIgnored(label.Name, now) {
			state.result.Ignored = true
		}
	}

	w.logger.Debug().
		Str("page", page.ID).
		Str("title", page.Title).
		Str("phase", string(state.result.Phase)).
		Msg("Page classified")

	return state
}

// lastModified takes the timestamp from the listing's expanded version
// when present, falling back to the history endpoint.
func (w *SpaceWalker) lastModified(ctx context.Context, page models.Page) (time.Time, string, error) {
	if page.Version != nil && page.Version.When != "" {
		when, err := models.ParseWhen(page.Version.When)
		if err == nil {
			return when, userName(page.Version.By), nil
		}
	}

	history, err := w.client.GetPageHistory(ctx, page.ID)
	if err != nil {
		return time.Time{}, "", err
	}
	if history.LastUpdated == nil {
		return time.Time{}, "", NewConfluenceError("PAGE_HISTORY",
			fmt.Sprintf("page %s history has no lastUpdated entry", page.ID))
	}

	when, err := models.ParseWhen(history.LastUpdated.When)
	if err != nil {
		return time.Time{}, "", WrapError(err, ErrorTypeConfluence, "PAGE_HISTORY",
			fmt.Sprintf("page %s has unparseable lastUpdated timestamp", page.ID))
	}

	return when, userName(history.LastUpdated.By), nil
}

// applyLabels reconciles each page's labels sequentially, in listing
// order. Deprecated bare labels are always removed; pages carrying an
// active ignore label are otherwise left alone.
func (w *SpaceWalker) applyLabels(ctx context.Context, states []pageState) {
	for i := range states {
		state := &states[i]
		if state.result.Error != "" {
			continue
		}

		if err := w.reconcilePage(ctx, state); err != nil {
			state.result.Error = err.Error()
			w.logger.Warn().
				Str("page", state.page.ID).
				Err(err).
				Msg("Failed to reconcile page labels, continuing")
		}
	}
}

func (w *SpaceWalker) reconcilePage(ctx context.Context, state *pageState) error {
	desired := w.labels.For(state.result.Phase)

	for _, label := range state.labels {
		if lifecycle.IsDeprecated(label.Name) {
			if err := w.client.RemovePageLabel(ctx, state.page.ID, label.Name); err != nil {
				return err
			}
		}
	}

	if state.result.Ignored {
		// The page opted out; leave its lifecycle label as it stands.
		state.result.NewLabel = state.result.PreviousLabel
		w.logger.Debug().
			Str("page", state.page.ID).
			Msg("Page has an active ignore label, skipping")
		return nil
	}

	present := false
	for _, label := range state.labels {
		if _, ok := w.labels.Phase(label.Name); !ok {
			continue
		}
		if label.Name == desired {
			present = true
			continue
		}
		if err := w.client.RemovePageLabel(ctx, state.page.ID, label.Name); err != nil {
			return err
		}
	}

	if present {
		return nil
	}

	if err := w.client.AddPageLabel(ctx, state.page.ID, desired); err != nil {
		return err
	}
	state.result.Changed = true

	return nil
}

func userName(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.PublicName
}
