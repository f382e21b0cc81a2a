package roster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePosition(t *testing.T) {
	for _, label := range []string{"내야수", "외야수", "포수", "infielder", "Outfielder", "catcher"} {
		position, err := NormalizePosition(label)
		require.NoError(t, err, label)
		require.Equal(t, PositionBatter, position, label)
	}

	for _, label := range []string{"투수", "pitcher", " Pitcher "} {
		position, err := NormalizePosition(label)
		require.NoError(t, err, label)
		require.Equal(t, PositionPitcher, position, label)
	}

	for _, label := range []string{"지명타자", "", "coach"} {
		_, err := NormalizePosition(label)
		require.ErrorIs(t, err, ErrUnknownPosition, label)
	}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		line     string
		kind     ParseKind
		expected PlayerQuery
	}{
		{
			line:     "홍길동 (대전고 투수)",
			kind:     Structured,
			expected: PlayerQuery{Name: "홍길동", School: "대전고", Position: PositionPitcher},
		},
		{
			line:     "  김진욱 (강릉고, 투수)  ",
			kind:     Structured,
			expected: PlayerQuery{Name: "김진욱", School: "강릉고", Position: PositionPitcher},
		},
		{
			line:     "권동진 (세광고-원광대 내야수)",
			kind:     Structured,
			expected: PlayerQuery{Name: "권동진", School: "원광대", Position: PositionBatter},
		},
		{
			line:     "조형우 (광주제일고 포수)",
			kind:     Structured,
			expected: PlayerQuery{Name: "조형우", School: "광주제일고", Position: PositionBatter},
		},
		{
			line:     "한차현 포철고-성균관대 투수",
			kind:     PositionalFallback,
			expected: PlayerQuery{Name: "한차현", School: "성균관대", Position: PositionPitcher},
		},
		{line: "", kind: Skipped},
		{line: "2 →", kind: Skipped},
		{line: "   ", kind: Skipped},
	}

	for _, test := range cases {
		parsed := ParseLine(1, test.line)
		require.Equal(t, test.kind, parsed.Kind, test.line)
		require.NoError(t, parsed.Err, test.line)
		require.Equal(t, test.expected, parsed.Query, test.line)
	}
}

func TestParseLineUnparseable(t *testing.T) {
	cases := []struct {
		line     string
		position bool
	}{
		{line: "홍길동 (대전고 지명타자)", position: true},
		{line: "홍길동 (대전고)"},
		{line: "홍길동"},
		{line: "홍길동 (대전고 투수"},
		{line: "홍길동 대전고 감독", position: true},
	}

	for _, test := range cases {
		parsed := ParseLine(7, test.line)
		require.Equal(t, Unparseable, parsed.Kind, test.line)

		var formatErr *InputFormatError
		require.True(t, errors.As(parsed.Err, &formatErr), test.line)
		require.Equal(t, 7, formatErr.LineNo)
		require.Equal(t, test.position, errors.Is(parsed.Err, ErrUnknownPosition), test.line)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	lines := []string{
		"홍길동 (대전고 투수)",
		"박건우 (덕수고-고려대 투수)",
		"오장한 (장안고 외야수)",
		"김휘집 (신일고, 내야수)",
		"이주형 야탑고 외야수",
	}

	for _, line := range lines {
		first := ParseLine(1, line)
		require.NoError(t, first.Err, line)

		second := ParseLine(1, Format(first.Query))
		require.Equal(t, Structured, second.Kind, line)
		require.Equal(t, first.Query, second.Query, line)
	}
}

func TestParse(t *testing.T) {
	queries, notable, err := ParseString(`
김진욱 (강릉고 투수)
김기중 (유신고 투수)
2 →
나승엽 (덕수고 내야수)
이상한 줄
한재승 인천고 투수
`)
	require.NoError(t, err)
	require.Equal(t, []PlayerQuery{
		{Name: "김진욱", School: "강릉고", Position: PositionPitcher},
		{Name: "김기중", School: "유신고", Position: PositionPitcher},
		{Name: "나승엽", School: "덕수고", Position: PositionBatter},
		{Name: "한재승", School: "인천고", Position: PositionPitcher},
	}, queries)

	require.Len(t, notable, 2)
	require.Equal(t, Unparseable, notable[0].Kind)
	require.Equal(t, 6, notable[0].LineNo)
	require.Equal(t, PositionalFallback, notable[1].Kind)
}

func TestKey(t *testing.T) {
	q := PlayerQuery{Name: "홍길동", School: "대전고", Position: PositionPitcher}
	require.Equal(t, "홍길동_대전고", q.Key())
	require.Equal(t, "홍길동 (대전고, 투수)", Format(q))
}
