package scraper

import (
	"context"
	"errors"
	"statcrawl/internal/roster"
	"statcrawl/lib/browser"
	"statcrawl/lib/chrono"
	"statcrawl/lib/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

var batterHeader = []string{"연도", "경기", "타율"}

func newTestRunner(tel telemetry.API) Runner {
	return NewRunner(Options{
		BaseURL:      testURL,
		Layout:       DefaultLayout(),
		Placeholders: DefaultPlaceholders(),
		Timeouts:     testTimeouts(),
	}, &chrono.Frozen{}, tel)
}

func TestRunSinglePlayer(t *testing.T) {
	site := daejeonSite()
	site.addRecords("홍길동", roster.PositionPitcher, recordMarkup(
		[]string{"연도", "경기", "평균자책점"},
		[]string{"2023", "12", "3.21"},
		[]string{"2024", "15", "2.45"},
	))

	queries, _, err := roster.ParseString("홍길동 (대전고 투수)")
	require.NoError(t, err)
	require.Equal(t, []roster.PlayerQuery{{Name: "홍길동", School: "대전고", Position: roster.PositionPitcher}}, queries)

	tel := &telemetry.Recorder{}
	results := newTestRunner(tel).Run(context.Background(), site, queries)

	require.Equal(t, 1, results.Len())
	result, ok := results.Get("홍길동_대전고")
	require.True(t, ok)
	require.Equal(t, StatusOk, result.Status)
	require.NoError(t, result.Err)
	require.Len(t, result.Records, 2)
	era, _ := result.Records[1].Get("평균자책점")
	require.Equal(t, "2.45", era)

	require.Equal(t, 1, site.navigations)
	require.Equal(t, 1, site.closes)
	require.True(t, tel.Has("count", report_runner_player+".ok"))
}

func TestRunIsolatesFailures(t *testing.T) {
	site := daejeonSite()
	site.addSchool("대구상원고", "박투수")
	site.addRecords("홍길동", roster.PositionBatter, recordMarkup(batterHeader, []string{"2024", "25", "0.345"}))
	site.addRecords("박투수", roster.PositionPitcher, recordMarkup(
		[]string{"연도", "이닝", "평균자책점"},
		[]string{"2024", "40.1", "2.45"},
	))

	queries := []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
		{Name: "홍길동", School: "부산고", Position: roster.PositionBatter},
		{Name: "김철수", School: "대전고", Position: roster.PositionBatter},
		{Name: "박투수", School: "대구상원고", Position: roster.PositionPitcher},
	}

	results := newTestRunner(&telemetry.Recorder{}).Run(context.Background(), site, queries)

	require.Equal(t, []string{"홍길동_대전고", "홍길동_부산고", "김철수_대전고", "박투수_대구상원고"}, results.Keys())

	all := results.All()
	require.Equal(t, StatusOk, all[0].Status)

	require.Equal(t, StatusFailed, all[1].Status)
	require.Equal(t, StateStart, all[1].FailedAt)
	require.Equal(t, NotFound, all[1].Result)
	require.Error(t, all[1].Err)

	require.Equal(t, StatusNoData, all[2].Status)
	require.ErrorIs(t, all[2].Err, ErrNoDataExtracted)

	require.Equal(t, StatusOk, all[3].Status)
	era, _ := all[3].Records[0].Get("평균자책점")
	require.Equal(t, "2.45", era)

	require.Equal(t, 2, results.Count(StatusOk))
	require.Equal(t, 1, results.Count(StatusNoData))
	require.Equal(t, 1, results.Count(StatusFailed))

	// every player starts from a freshly loaded page
	require.Equal(t, 4, site.navigations)
	require.Equal(t, 1, site.closes)
}

func TestRunContainerReadFails(t *testing.T) {
	site := daejeonSite()
	site.hook = func(op, arg string) error {
		if op == "read" {
			return browser.ErrStale
		}
		return nil
	}

	results := newTestRunner(&telemetry.Recorder{}).Run(context.Background(), site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
	})

	result, ok := results.Get("홍길동_대전고")
	require.True(t, ok)
	require.Equal(t, StatusNoData, result.Status)
	require.ErrorIs(t, result.Err, browser.ErrStale)
}

func TestRunResetFails(t *testing.T) {
	site := daejeonSite()
	site.hook = func(op, arg string) error {
		if op == "navigate" {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}

	tel := &telemetry.Recorder{}
	results := newTestRunner(tel).Run(context.Background(), site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
		{Name: "김철수", School: "대전고", Position: roster.PositionBatter},
	})

	require.Equal(t, 2, results.Count(StatusFailed))
	for _, result := range results.All() {
		require.Equal(t, StateStart, result.FailedAt)
		require.Equal(t, ClickFailed, result.Result)
	}
	require.True(t, tel.Has("warning", report_runner_reset))
	require.Equal(t, 1, site.closes)
}

func TestRunRecoversPanic(t *testing.T) {
	site := daejeonSite()
	site.addRecords("김철수", roster.PositionBatter, recordMarkup(batterHeader, []string{"2024", "25", "0.301"}))
	site.hook = func(op, arg string) error {
		if op == "select" && arg == "홍길동 (2006)" {
			panic("renderer crashed")
		}
		return nil
	}

	tel := &telemetry.Recorder{}
	results := newTestRunner(tel).Run(context.Background(), site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
		{Name: "김철수", School: "대전고", Position: roster.PositionBatter},
	})

	first, _ := results.Get("홍길동_대전고")
	require.Equal(t, StatusFailed, first.Status)
	require.ErrorContains(t, first.Err, "renderer crashed")

	second, _ := results.Get("김철수_대전고")
	require.Equal(t, StatusOk, second.Status)

	require.True(t, tel.Has("broken", report_runner_player))
	require.Equal(t, 1, site.closes)
}

func TestRunDuplicateKeyOverwrites(t *testing.T) {
	site := daejeonSite()
	site.addRecords("홍길동", roster.PositionPitcher, recordMarkup(batterHeader, []string{"2024", "3", "0.000"}))

	results := newTestRunner(&telemetry.Recorder{}).Run(context.Background(), site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
		{Name: "김철수", School: "대전고", Position: roster.PositionBatter},
		{Name: "홍길동", School: "대전고", Position: roster.PositionPitcher},
	})

	require.Equal(t, []string{"홍길동_대전고", "김철수_대전고"}, results.Keys())
	result, _ := results.Get("홍길동_대전고")
	require.Equal(t, roster.PositionPitcher, result.Query.Position)
	require.Equal(t, StatusOk, result.Status)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	site := daejeonSite()
	site.addRecords("홍길동", roster.PositionBatter, recordMarkup(batterHeader, []string{"2024", "25", "0.345"}))
	site.hook = func(op, arg string) error {
		if op == "read" {
			cancel()
		}
		return nil
	}

	results := newTestRunner(&telemetry.Recorder{}).Run(ctx, site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
		{Name: "김철수", School: "대전고", Position: roster.PositionBatter},
		{Name: "이영희", School: "대전고", Position: roster.PositionPitcher},
	})

	require.Equal(t, 3, results.Len())
	all := results.All()
	require.Equal(t, StatusOk, all[0].Status)
	for _, result := range all[1:] {
		require.Equal(t, StatusFailed, result.Status)
		require.ErrorIs(t, result.Err, context.Canceled)
	}
	require.Equal(t, 1, site.navigations)
	require.Equal(t, 1, site.closes)
}

func TestRunEmpty(t *testing.T) {
	site := daejeonSite()
	results := newTestRunner(&telemetry.Recorder{}).Run(context.Background(), site, nil)
	require.Equal(t, 0, results.Len())
	require.Equal(t, 0, site.navigations)
	require.Equal(t, 1, site.closes)
}

func TestRunPassesConfiguredTimeouts(t *testing.T) {
	site := daejeonSite()
	newTestRunner(&telemetry.Recorder{}).Run(context.Background(), site, []roster.PlayerQuery{
		{Name: "홍길동", School: "대전고", Position: roster.PositionBatter},
	})

	require.Equal(t, testTimeouts().Navigate, site.timeouts["navigate"])
	require.Equal(t, testTimeouts().Element, site.timeouts["select"])
}
