package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/keywatch/internal/model"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatBoth     = "both"
)

// Renderer writes reports as JSON and Markdown files and prints terminal
// summaries
type Renderer struct {
	maxMatches int // per result in Markdown; 0 = all
}

// NewRenderer creates a renderer listing at most maxMatches matches per
// rule in Markdown output
func NewRenderer(maxMatches int) *Renderer {
	return &Renderer{maxMatches: maxMatches}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# keywatch report: %s\n\n", report.Source)
	fmt.Fprintf(&b, "- Analyzed: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	if report.Platform != "" {
		fmt.Fprintf(&b, "- Platform: %s\n", report.Platform)
	}
	fmt.Fprintf(&b, "- Content length: %d characters\n", report.ContentLength)
	if report.Sentiment != nil {
		fmt.Fprintf(&b, "- Sentiment: %s (%.2f, %s)\n", report.Sentiment.Label, report.Sentiment.Score, report.Sentiment.Provider)
	}
	if report.FetchMeta != nil {
		fmt.Fprintf(&b, "- HTTP status: %d\n", report.FetchMeta.StatusCode)
	}

	b.WriteString("\n## Alert\n\n")
	if report.Alert.Triggered {
		fmt.Fprintf(&b, "**TRIGGERED** by rule %q (#%d)", report.Alert.RuleName, report.Alert.RuleID)
		if report.Alert.Trigger != nil {
			fmt.Fprintf(&b, ", trigger `%s`", report.Alert.Trigger.Kind())
		}
		if report.Alert.Keyword != "" {
			fmt.Fprintf(&b, ", keyword %q", report.Alert.Keyword)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No alert.\n")
	}

	b.WriteString("\n## Results\n\n")
	if len(report.Results) == 0 {
		b.WriteString("No rule matched.\n")
	}
	for _, res := range report.Results {
		fmt.Fprintf(&b, "### %s (#%d)\n\n", res.RuleName, res.RuleID)
		fmt.Fprintf(&b, "Priority %s, match score %.3f, confidence %.3f", res.Priority.Label(), res.MatchScore, res.Confidence)
		if res.Category != "" {
			fmt.Fprintf(&b, ", category %s", res.Category)
		}
		b.WriteString("\n\n| Keyword | Matched | Type | Confidence | Score | Context |\n")
		b.WriteString("|---|---|---|---|---|---|\n")

		matches := res.Matches
		if r.maxMatches > 0 && len(matches) > r.maxMatches {
			matches = matches[:r.maxMatches]
		}
		for _, m := range matches {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f | %s |\n",
				cell(m.Keyword), cell(m.MatchedText), m.Type, m.Confidence, m.Score, cell(m.Context))
		}
		if hidden := len(res.Matches) - len(matches); hidden > 0 {
			fmt.Fprintf(&b, "\n_%d more matches omitted._\n", hidden)
		}
		b.WriteString("\n")
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Score breakdown\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- **%s**: %s\n", s.Type, s.Description)
		}
		b.WriteString("\n")
	}

	st := report.Stats
	if st.TotalMatches > 0 {
		b.WriteString("## Statistics\n\n")
		fmt.Fprintf(&b, "- Matches: %d across %d rules\n", st.TotalMatches, st.UniqueRules)
		fmt.Fprintf(&b, "- Score: avg %.2f, min %.2f, max %.2f\n", st.AvgScore, st.MinScore, st.MaxScore)
		for _, c := range st.TopCategories {
			fmt.Fprintf(&b, "- Category %s: %d\n", c.Category, c.Count)
		}
		b.WriteString("\n")
	}

	if !report.Entities.Empty() {
		e := report.Entities
		b.WriteString("## Entities\n\n")
		writeList(&b, "Symbols", e.Symbols)
		writeList(&b, "Addresses", e.Addresses)
		writeList(&b, "URLs", e.URLs)
		writeList(&b, "Hashtags", e.Hashtags)
		writeList(&b, "Mentions", e.Mentions)
		b.WriteString("\n")
	}

	if len(report.SuggestedKeywords) > 0 {
		fmt.Fprintf(&b, "## Suggested keywords\n\n%s\n", strings.Join(report.SuggestedKeywords, ", "))
	}

	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	status := "no alert"
	if report.Alert.Triggered {
		status = fmt.Sprintf("ALERT (rule %q)", report.Alert.RuleName)
	}
	_, _ = fmt.Fprintf(w, "%s: %d rules matched, %d matches, %s\n",
		report.Source, report.Stats.UniqueRules, report.Stats.TotalMatches, status)

	for i, res := range report.Results {
		if i == 5 {
			_, _ = fmt.Fprintf(w, "  ... %d more\n", len(report.Results)-5)
			break
		}
		_, _ = fmt.Fprintf(w, "  [%s] %s: score %.3f, %d matches\n",
			res.Priority.Label(), res.RuleName, res.MatchScore, len(res.Matches))
	}
}

// ReportPaths returns the JSON and Markdown paths for a report in dir.
// Paths for formats not selected are empty.
func ReportPaths(dir, format string, report *model.Report) (jsonPath, mdPath string) {
	base := filepath.Join(dir, slug(report.Source)+"-"+report.AnalyzedAt.Format("20060102-150405"))
	switch format {
	case FormatMarkdown:
		return "", base + ".md"
	case FormatBoth:
		return base + ".json", base + ".md"
	default:
		return base + ".json", ""
	}
}

// RenderReport writes the report in the configured formats
func (r *Renderer) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) > 0 {
		fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, ", "))
	}
}

// cell escapes a value for a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// slug turns a source into a file name fragment
func slug(source string) string {
	source = strings.TrimPrefix(strings.TrimPrefix(source, "https://"), "http://")
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(source) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimSuffix(out[:60], "-")
	}
	if out == "" {
		return "report"
	}
	return out
}
