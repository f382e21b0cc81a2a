package scraper

import (
	"context"
	"errors"
	"fmt"
	"statcrawl/internal/assert"
	"statcrawl/internal/roster"
	"statcrawl/lib/browser"
	"statcrawl/lib/chrono"
	"statcrawl/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("statcrawl/internal/scraper")

const (
	report_navigator_step = "navigator.step"
)

// Outcome is where a navigation ended. Container is the results container selector when
// State is StateRecordReady.
type Outcome struct {
	State State
	// LastState is the last state reached successfully.
	LastState State
	Result    NavigationResult
	Err       error
	Container string
}

// Navigator drives the dependent selections that lead from a freshly loaded record page
// to a player's records. It does not reload the page, the caller does that between players.
type Navigator struct {
	session      browser.Session
	matcher      Matcher
	layout       Layout
	placeholders Placeholders
	timeouts     Timeouts
	clock        chrono.API
	tel          telemetry.API
}

func NewNavigator(
	session browser.Session,
	layout Layout,
	placeholders Placeholders,
	timeouts Timeouts,
	clock chrono.API,
	tel telemetry.API,
) Navigator {
	assert.NotNil(session)
	assert.NotNil(clock)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("navigator", tel)

	return Navigator{
		session:      session,
		matcher:      NewMatcher(session, clock, timeouts, tel),
		layout:       layout,
		placeholders: placeholders,
		timeouts:     timeouts,
		clock:        clock,
		tel:          tel,
	}
}

// resultFromError maps an automation error to the outcome of the step it broke.
func resultFromError(err error) NavigationResult {
	switch {
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, browser.ErrNotFound):
		return NotFound
	}
	return ClickFailed
}

// route is the state of one navigation, steps fill in what later steps and the outcome need.
type route struct {
	query     roster.PlayerQuery
	container string
}

type step struct {
	name string
	to   State
	run  func(ctx context.Context, r *route) (NavigationResult, error)
}

func (n Navigator) steps() []step {
	return []step{
		{name: "select-school", to: StateSchoolSelected, run: n.selectSchool},
		{name: "select-player", to: StatePlayerSelected, run: n.selectPlayer},
		{name: "trigger-position-search", to: StatePositionSearchTriggered, run: n.triggerPositionSearch},
		{name: "select-position", to: StatePositionCategorySelected, run: n.selectPosition},
		{name: "await-results", to: StateRecordReady, run: n.awaitResults},
	}
}

// Navigate walks the steps in order and stops at the first one that doesn't succeed.
func (n Navigator) Navigate(ctx context.Context, q roster.PlayerQuery) Outcome {
	ctx, span := tracer.Start(ctx, "navigate")
	defer span.End()
	span.SetAttributes(
		attribute.String("player", q.Name),
		attribute.String("school", q.School),
		attribute.String("position", q.Position.String()),
	)

	r := &route{query: q}
	current := StateStart
	for _, s := range n.steps() {
		result, err := s.run(ctx, r)
		if result != Success {
			if err == nil {
				err = fmt.Errorf("%s: %s", s.name, result)
			}
			err = fmt.Errorf("%s: %w", s.name, err)

			n.tel.ReportWarning(report_navigator_step, err, q.Key(), current.String(), result.String())
			span.RecordError(err)
			span.SetStatus(codes.Error, "navigation aborted")

			return Outcome{
				State:     StateAborted,
				LastState: current,
				Result:    result,
				Err:       err,
			}
		}
		n.tel.ReportDebug(report_navigator_step, q.Key(), s.to.String())
		current = s.to
	}

	return Outcome{
		State:     StateRecordReady,
		LastState: StateRecordReady,
		Result:    Success,
		Container: r.container,
	}
}

func (n Navigator) selectFromDropdown(ctx context.Context, trigger, target, placeholder string) (NavigationResult, error) {
	err := n.session.OpenDropdown(ctx, trigger, n.timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("open dropdown: %w", err)
	}
	err = n.clock.Sleep(ctx, n.timeouts.Settle)
	if err != nil {
		return Timeout, err
	}

	listed, err := n.session.ListOptions(ctx, n.layout.Options, n.timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("list options: %w", err)
	}

	return n.matcher.Match(ctx, n.layout.Options, uiOptionsFrom(listed), target, placeholder)
}

func (n Navigator) selectSchool(ctx context.Context, r *route) (NavigationResult, error) {
	return n.selectFromDropdown(ctx, n.layout.SchoolTrigger, r.query.School, n.placeholders.School)
}

// selectPlayer relies on the site narrowing the player dropdown to the selected school.
func (n Navigator) selectPlayer(ctx context.Context, r *route) (NavigationResult, error) {
	return n.selectFromDropdown(ctx, n.layout.PlayerTrigger, r.query.Name, n.placeholders.Player)
}

func (n Navigator) triggerPositionSearch(ctx context.Context, _ *route) (NavigationResult, error) {
	err := n.session.Click(ctx, n.layout.PositionSearch, n.timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("click position search: %w", err)
	}
	err = n.clock.Sleep(ctx, n.timeouts.PageSettle)
	if err != nil {
		return Timeout, err
	}
	return Success, nil
}

func (n Navigator) selectPosition(ctx context.Context, r *route) (NavigationResult, error) {
	slot, err := n.layout.PositionSlot(r.query.Position)
	if err != nil {
		return NotFound, err
	}
	err = n.session.Click(ctx, slot, n.timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("click %s slot: %w", r.query.Position, err)
	}
	err = n.clock.Sleep(ctx, n.timeouts.Settle)
	if err != nil {
		return Timeout, err
	}
	return Success, nil
}

func (n Navigator) awaitResults(ctx context.Context, r *route) (NavigationResult, error) {
	container, err := n.layout.ResultsContainer(r.query.Position)
	if err != nil {
		return NotFound, err
	}
	err = n.session.WaitForElement(ctx, container, n.timeouts.Element)
	if err != nil {
		return resultFromError(err), fmt.Errorf("wait for results: %w", err)
	}
	r.container = container
	return Success, nil
}
