package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathToName(t *testing.T) {
	tests := map[string]string{
		"":                  "home",
		"/":                 "home",
		"/user-profile":     "user.profile",
		"/Users/edit_email": "users.edit.email",
		"reports/weekly/":   "reports.weekly",
	}
	for in, want := range tests {
		assert.Equal(t, want, PathToName(in), "PathToName(%q)", in)
	}
}

func TestRouteSimilarity(t *testing.T) {
	w := DefaultWeights()

	exact := RouteSimilarity("user.profile", "/user-profile", "user.profile", "user-profile/", "", w)
	assert.InDelta(t, 0.9, exact, 1e-9)

	withLink := RouteSimilarity("user.profile", "/user-profile", "user.profile", "/user-profile", "user profile", w)
	assert.InDelta(t, 1.0, withLink, 1e-9)

	unrelated := RouteSimilarity("user.profile", "/user-profile", "billing.invoices", "/billing/invoices", "", w)
	assert.Less(t, unrelated, exact)
}

func TestFindBestRoute(t *testing.T) {
	routes := []Route{
		{Name: "home", URI: "/"},
		{Name: "users.index", URI: "/users"},
		{Name: "user.profile", URI: "/user-profile"},
	}

	match, ok := FindBestRoute("/user-profile", routes, "", 0.5)
	require.True(t, ok)
	assert.Equal(t, "user.profile", match.Name)
	assert.InDelta(t, 0.9, match.Score, 1e-9)

	_, ok = FindBestRoute("/user-profile", routes, "", 0.95)
	assert.False(t, ok)

	_, ok = FindBestRoute("/anything", nil, "", 0)
	assert.False(t, ok)
}

func TestFindBestRoute_FirstWinsTie(t *testing.T) {
	routes := []Route{
		{Name: "dashboard", URI: "/dashboard"},
		{Name: "dashboard", URI: "/dashboard"},
	}
	routes[1].URI = "dashboard/" // trims to the same value

	match, ok := FindBestRoute("/dashboard", routes, "", 0.5)
	require.True(t, ok)
	assert.Equal(t, "/dashboard", match.URI)
}

func TestExtractWords(t *testing.T) {
	got := ExtractWords("The Quick-Brown fox, and the DOG!")
	assert.Equal(t, []string{"quick", "brown", "fox", "dog"}, got)
	assert.Empty(t, ExtractWords("the and of"))
}
