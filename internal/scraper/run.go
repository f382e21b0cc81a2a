package scraper

import (
	"context"
	"fmt"
	"math"
	"statcrawl/internal/assert"
	"statcrawl/internal/roster"
	"statcrawl/lib/browser"
	"statcrawl/lib/chrono"
	"statcrawl/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	report_runner_reset   = "runner.reset"
	report_runner_player  = "runner.player"
	report_runner_extract = "runner.extract"
	report_runner_close   = "runner.close"
)

type Options struct {
	BaseURL      string
	Layout       Layout
	Placeholders Placeholders
	Timeouts     Timeouts
	// PlayersPerMinute caps how often a player's page reload may start, 0 means no cap.
	PlayersPerMinute float64
}

// Runner processes queries one after another against a single browser session.
type Runner struct {
	opts      Options
	limiter   *rate.Limiter
	extractor Extractor
	clock     chrono.API
	tel       telemetry.API
	players   metric.Int64Counter
}

func NewRunner(opts Options, clock chrono.API, tel telemetry.API) Runner {
	assert.NotEmptyStr(opts.BaseURL)
	assert.NotEmptyStr(opts.Layout.Ready)
	assert.NotNil(clock)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("scraper", tel)

	limit := rate.Inf
	if opts.PlayersPerMinute > 0 && !math.IsInf(opts.PlayersPerMinute, 1) {
		limit = rate.Limit(opts.PlayersPerMinute / 60)
	}

	players, err := otel.Meter("statcrawl/internal/scraper").Int64Counter(
		"statcrawl.players",
		metric.WithDescription("players processed, by result status"),
	)
	if err != nil {
		tel.ReportBroken(report_runner_player, fmt.Errorf("create players counter: %w", err))
	}

	return Runner{
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
		extractor: NewExtractor(opts.Layout, tel),
		clock:     clock,
		tel:       tel,
		players:   players,
	}
}

// Run produces exactly one result per query, in input order, and closes session exactly
// once before returning. A query failing never stops the queries after it. When ctx is
// cancelled the remaining queries are recorded as failed without touching the browser.
func (r Runner) Run(ctx context.Context, session browser.Session, queries []roster.PlayerQuery) *Results {
	assert.NotNil(session)

	defer func() {
		err := session.Close()
		if err != nil {
			r.tel.ReportBroken(report_runner_close, err)
		}
	}()

	navigator := NewNavigator(
		session,
		r.opts.Layout,
		r.opts.Placeholders,
		r.opts.Timeouts,
		r.clock,
		r.tel,
	)

	results := NewResults()
	for i, q := range queries {
		r.tel.ReportDebug(report_runner_player, fmt.Sprintf("%d/%d", i+1, len(queries)), q.Key())

		var result PlayerResult
		if err := ctx.Err(); err != nil {
			result = PlayerResult{
				Query:  q,
				Status: StatusFailed,
				Err:    fmt.Errorf("not started: %w", err),
			}
		} else {
			result = r.safeRunPlayer(ctx, session, navigator, q)
		}

		results.Put(result)
		r.reportResult(ctx, result)
	}

	r.tel.ReportCount(report_runner_player+".ok", int64(results.Count(StatusOk)))
	r.tel.ReportCount(report_runner_player+".no-data", int64(results.Count(StatusNoData)))
	r.tel.ReportCount(report_runner_player+".failed", int64(results.Count(StatusFailed)))

	return results
}

func (r Runner) reportResult(ctx context.Context, result PlayerResult) {
	if r.players != nil {
		r.players.Add(ctx, 1, metric.WithAttributes(attribute.String("status", result.Status.String())))
	}

	switch result.Status {
	case StatusOk:
		r.tel.ReportDebug(report_runner_player, result.Query.Key(), "records", len(result.Records))
	case StatusNoData:
		r.tel.ReportWarning(report_runner_player, result.Query.Key(), result.Status.String(), result.Err)
	case StatusFailed:
		r.tel.ReportWarning(
			report_runner_player,
			result.Query.Key(),
			result.Status.String(),
			result.FailedAt.String(),
			result.Result.String(),
			result.Err,
		)
	}
}

// safeRunPlayer is the player boundary, nothing that goes wrong for one player gets past it.
func (r Runner) safeRunPlayer(ctx context.Context, session browser.Session, navigator Navigator, q roster.PlayerQuery) (result PlayerResult) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.tel.ReportBroken(report_runner_player, err, q.Key())
			result = PlayerResult{
				Query:  q,
				Status: StatusFailed,
				Result: ClickFailed,
				Err:    err,
			}
		}
	}()
	return r.runPlayer(ctx, session, navigator, q)
}

// reset reloads the record page so no UI state carries over from the previous player.
func (r Runner) reset(ctx context.Context, session browser.Session) (NavigationResult, error) {
	err := r.limiter.Wait(ctx)
	if err != nil {
		return Timeout, fmt.Errorf("pace: %w", err)
	}
	err = session.Navigate(ctx, r.opts.BaseURL, r.opts.Timeouts.Navigate)
	if err != nil {
		return resultFromError(err), fmt.Errorf("reload: %w", err)
	}
	err = session.WaitForElement(ctx, r.opts.Layout.Ready, r.opts.Timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("wait for page: %w", err)
	}
	err = r.clock.Sleep(ctx, r.opts.Timeouts.PageSettle)
	if err != nil {
		return Timeout, err
	}
	return Success, nil
}

func (r Runner) runPlayer(ctx context.Context, session browser.Session, navigator Navigator, q roster.PlayerQuery) PlayerResult {
	ctx, span := tracer.Start(ctx, "scrape-player")
	defer span.End()
	span.SetAttributes(attribute.String("key", q.Key()))

	result := PlayerResult{Query: q}

	navResult, err := r.reset(ctx, session)
	if err != nil {
		r.tel.ReportWarning(report_runner_reset, err, q.Key())
		span.RecordError(err)
		span.SetStatus(codes.Error, "reset failed")
		result.Status = StatusFailed
		result.FailedAt = StateStart
		result.Result = navResult
		result.Err = err
		return result
	}

	outcome := navigator.Navigate(ctx, q)
	if outcome.State != StateRecordReady {
		span.SetStatus(codes.Error, "navigation aborted")
		result.Status = StatusFailed
		result.FailedAt = outcome.LastState
		result.Result = outcome.Result
		result.Err = outcome.Err
		return result
	}
	result.FailedAt = StateRecordReady
	result.Result = Success

	markup, err := session.ReadContainerMarkup(ctx, outcome.Container, r.opts.Timeouts.Element)
	if err != nil {
		err = fmt.Errorf("read results container: %w", err)
		r.tel.ReportWarning(report_runner_extract, err, q.Key())
		result.Status = StatusNoData
		result.Err = err
		return result
	}

	_, extractSpan := tracer.Start(ctx, "extract")
	records, warnings := r.extractor.ExtractMarkup(markup)
	extractSpan.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("dropped", len(warnings)),
	)
	extractSpan.End()

	if len(records) == 0 {
		result.Status = StatusNoData
		result.Err = ErrNoDataExtracted
		return result
	}
	result.Status = StatusOk
	result.Records = records
	return result
}
