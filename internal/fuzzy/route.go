package fuzzy

import (
	"strings"
)

// Weights balances the components of RouteSimilarity
type Weights struct {
	Name     float64 `json:"name" yaml:"name"`
	URI      float64 `json:"uri" yaml:"uri"`
	LinkText float64 `json:"link_text" yaml:"link_text"`
}

// DefaultWeights returns the standard 0.6/0.3/0.1 split
func DefaultWeights() Weights {
	return Weights{Name: 0.6, URI: 0.3, LinkText: 0.1}
}

// Route is a named route candidate
type Route struct {
	Name string `json:"name" yaml:"name"`
	URI  string `json:"uri" yaml:"uri"`
}

// RouteMatch is the best route found for a path
type RouteMatch struct {
	Route
	Score float64 `json:"similarity_score"`
}

var (
	separatorReplacer = strings.NewReplacer(".", " ", "_", " ", "-", " ")
	segmentReplacer   = strings.NewReplacer("-", ".", "_", ".")
)

// RouteSimilarity scores a candidate route against a target name and URI.
// Link text, when given, is compared to the candidate name with separators
// turned into spaces.
func RouteSimilarity(targetName, targetURI, candidateName, candidateURI, linkText string, w Weights) float64 {
	nameSim := JaroWinkler(strings.ToLower(targetName), strings.ToLower(candidateName))
	uriSim := JaroWinkler(
		strings.ToLower(strings.Trim(targetURI, "/")),
		strings.ToLower(strings.Trim(candidateURI, "/")),
	)

	linkSim := 0.0
	if linkText != "" && candidateName != "" {
		linkSim = JaroWinkler(
			strings.ToLower(linkText),
			strings.ToLower(separatorReplacer.Replace(candidateName)),
		)
	}

	return w.Name*nameSim + w.URI*uriSim + w.LinkText*linkSim
}

// FindBestRoute returns the highest scoring route at or above minScore.
// The first candidate wins a tie.
func FindBestRoute(targetPath string, routes []Route, linkText string, minScore float64) (RouteMatch, bool) {
	targetName := PathToName(targetPath)
	weights := DefaultWeights()

	var best RouteMatch
	found := false
	for _, r := range routes {
		score := RouteSimilarity(targetName, targetPath, r.Name, r.URI, linkText, weights)
		if score > best.Score && score >= minScore {
			best = RouteMatch{Route: r, Score: score}
			found = true
		}
	}
	return best, found
}

// PathToName derives a probable route name from a URL path:
// "/user-profile/edit" becomes "user.profile.edit", "/" becomes "home".
func PathToName(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "home"
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = segmentReplacer.Replace(strings.ToLower(s))
	}
	return strings.Join(segments, ".")
}
