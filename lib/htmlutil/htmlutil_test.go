package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{in: "  plain  ", expect: "plain"},
		{in: "Signed in\n\t  successfully.", expect: "Signed in successfully."},
		{in: "a\u0000b", expect: "ab"},
		{in: "", expect: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, Normalize(test.in))
	}
}

func TestContainsText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="toast"><div class="toast-body">
			You are already
			signed in.
		</div></div>
		<p>You are already signed in.</p>
	`))
	require.NoError(t, err)

	require.True(t, ContainsText(doc.Selection, ".toast-body", "You are already signed in."))
	require.False(t, ContainsText(doc.Selection, ".toast-body", "Signed in successfully."))
	require.False(t, ContainsText(doc.Selection, ".missing", "You are already signed in."))
	require.Equal(t, "You are already signed in.", SelectionText(doc.Find(".toast-body")))
}
