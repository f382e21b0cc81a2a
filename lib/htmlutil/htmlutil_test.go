package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "  대전고 \n", expected: "대전고"},
		{in: "2023\t\t시즌", expected: "2023 시즌"},
		{in: "​0.312", expected: "0.312"},
		{in: "", expected: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.in), test.in)
	}
}

func TestTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<ul><li><span> 연도 </span><span>경기<br/>수</span></li></ul>`,
	))
	require.NoError(t, err)

	require.Equal(t, []string{"연도", "경기수"}, Texts(doc.Find("span")))
}
