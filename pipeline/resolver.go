package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"mealresolver"
	"mealresolver/extract"
	"mealresolver/nutrition"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 4

type Options struct {
	ExtractTimeout    time.Duration
	LookupTimeout     time.Duration
	LookupConcurrency int
	Logger            mealresolver.ResolutionLogger
}

// Resolver turns a free-text meal into per-item nutrients and meal totals.
type Resolver struct {
	extractor mealresolver.TextExtractor
	source    mealresolver.NutrientSource
	opts      Options
}

func NewResolver(extractor mealresolver.TextExtractor, source mealresolver.NutrientSource, opts Options) *Resolver {
	if opts.LookupConcurrency <= 0 {
		opts.LookupConcurrency = defaultLookupConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = mealresolver.NewNoOpResolutionLogger()
	}
	return &Resolver{
		extractor: extractor,
		source:    source,
		opts:      opts,
	}
}

// Resolve runs one resolution. Errors wrap ErrInvalidInput, ErrConfiguration or ErrUnexpected.
func (r *Resolver) Resolve(ctx context.Context, text string) (mealresolver.MealResult, error) {
	res, _, err := r.resolve(ctx, text)
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, text string) (result mealresolver.MealResult, run mealresolver.RunLog, err error) {
	start := time.Now()
	run = mealresolver.RunLog{
		RequestID: RequestID(ctx),
		Timestamp: start,
		Query:     text,
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("PIPELINE: Recovered from panic", "request_id", run.RequestID, "panic", p, "stack", string(debug.Stack()))
			result = mealresolver.MealResult{}
			err = fmt.Errorf("%w: panic: %v", mealresolver.ErrUnexpected, p)
		}
		run.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			run.Error = err.Error()
		}
		if lerr := r.opts.Logger.LogRun(run); lerr != nil {
			slog.Warn("PIPELINE: Failed to record run", "request_id", run.RequestID, "error", lerr)
		}
	}()

	query, err := mealresolver.NewMealQuery(text)
	if err != nil {
		return mealresolver.MealResult{}, run, err
	}

	if err := r.checkCredentials(); err != nil {
		slog.Error("PIPELINE: Missing credential", "request_id", run.RequestID, "error", err)
		return mealresolver.MealResult{}, run, err
	}

	slog.Info("PIPELINE: Starting resolution", "request_id", run.RequestID, "query_length", len(query.Text()))

	ex, err := r.extract(ctx, query.Text())
	if err != nil {
		slog.Error("PIPELINE: Extraction failed", "request_id", run.RequestID, "error", err)
		return mealresolver.MealResult{}, run, fmt.Errorf("%w: %w", mealresolver.ErrUnexpected, err)
	}
	run.LLMOutput = ex.Raw
	run.Degraded = ex.Degraded

	items := extract.Usable(ex.Items)
	run.Extracted = len(ex.Items)
	run.Dropped = len(ex.Items) - len(items)
	if run.Dropped > 0 {
		slog.Info("PIPELINE: Dropped unusable items", "request_id", run.RequestID, "dropped", run.Dropped)
	}

	resolved, raw, lookups := r.lookup(ctx, items)
	run.Lookups = lookups

	totals := nutrition.Aggregate(raw, ex.Estimates)
	run.Fallback = totals.Note != ""

	slog.Info("PIPELINE: Resolution complete",
		"request_id", run.RequestID,
		"items", len(resolved),
		"calories", totals.Calories,
		"fallback", run.Fallback,
	)

	return mealresolver.MealResult{Items: resolved, MealTotals: totals}, run, nil
}

// checkCredentials fails fast before any billable call is made.
func (r *Resolver) checkCredentials() error {
	for _, c := range []any{r.extractor, r.source} {
		if cc, ok := c.(mealresolver.CredentialChecker); ok {
			if err := cc.CheckCredentials(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) extract(ctx context.Context, text string) (mealresolver.Extraction, error) {
	if r.opts.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ExtractTimeout)
		defer cancel()
	}
	return r.extractor.Extract(ctx, text)
}

// lookup matches every item concurrently. Results land at the item's own index
// so output order equals extraction order regardless of completion order.
// A failed lookup is a miss for that item only.
func (r *Resolver) lookup(ctx context.Context, items []mealresolver.ExtractedItem) ([]mealresolver.ResolvedItem, []mealresolver.Nutrients, []mealresolver.LookupLog) {
	resolved := make([]mealresolver.ResolvedItem, len(items))
	raw := make([]mealresolver.Nutrients, len(items))
	logs := make([]mealresolver.LookupLog, len(items))

	var g errgroup.Group
	g.SetLimit(r.opts.LookupConcurrency)

	for i, item := range items {
		g.Go(func() error {
			match, ll := r.match(ctx, i, item.Name)
			resolved[i], raw[i] = nutrition.Resolve(item, match)
			logs[i] = ll
			return nil
		})
	}
	_ = g.Wait()

	return resolved, raw, logs
}

func (r *Resolver) match(ctx context.Context, index int, name string) (match mealresolver.NutrientMatch, ll mealresolver.LookupLog) {
	start := time.Now()
	ll = mealresolver.LookupLog{Index: index, Name: name}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("PIPELINE: Lookup panicked", "item", name, "panic", p)
			match = mealresolver.NutrientMatch{}
			ll.Error = fmt.Sprintf("panic: %v", p)
		}
		ll.DurationMs = time.Since(start).Milliseconds()
	}()

	if r.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.LookupTimeout)
		defer cancel()
	}

	m, err := r.source.Match(ctx, name)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("PIPELINE: Lookup timed out", "item", name)
		} else {
			slog.Warn("PIPELINE: Lookup failed", "item", name, "error", err)
		}
		ll.Error = err.Error()
		return mealresolver.NutrientMatch{}, ll
	}

	if m.Found() {
		ll.Matched = m.Description
	}
	return m, ll
}

type requestIDKey struct{}

// WithRequestID attaches a request id that resolution logs will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached to ctx, or a fresh uuid.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
