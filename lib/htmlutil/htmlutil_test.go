package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	page := `<html><body><table><tr>
	<td>  Электро<b>снабжение</b></td>
	</tr></table></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.Nil(t, err)

	nodes := doc.Find("td").Nodes
	require.Len(t, nodes, 1)

	// GetText flattens nested elements, CleanText strips the rendering
	// whitespace around them
	require.Equal(t, "  Электроснабжение", GetText(nodes[0]))
	require.Equal(t, "Электроснабжение", CleanText(GetText(nodes[0])))
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "", expect: ""},
		{input: "  a   b ", expect: "a b"},
		{input: "\t01.01.2027\n", expect: "01.01.2027"},
		{input: "Холодное  водоснабжение", expect: "Холодное водоснабжение"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, CleanText(test.input), "input: %q", test.input)
	}
}
