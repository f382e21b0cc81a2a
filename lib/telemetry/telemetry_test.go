package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("navigator", NewScopedAPI("scraper", rec))

	tel.ReportWarning("select-school", "대전고")
	tel.ReportCount("players", 3)

	warnings := rec.Reports("warning")
	require.Len(t, warnings, 1)
	require.Equal(t, "scraper: navigator: select-school", warnings[0].ID)
	require.Equal(t, []any{"대전고"}, warnings[0].Params)

	require.True(t, rec.Has("count", "players"))
	require.False(t, rec.Has("broken", "players"))
	require.Len(t, rec.Reports(""), 2)
}
