package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/keywatch/internal/model"
)

// Document is one piece of content submitted for analysis
type Document struct {
	ID          string         `json:"id"`
	Source      string         `json:"source,omitempty"`
	Platform    string         `json:"platform,omitempty"`
	Content     string         `json:"content"`
	Metadata    model.Metadata `json:"metadata"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// ErrStop ends ReadDocuments early without an error
var ErrStop = errors.New("stop reading")

const maxDocumentLine = 4 * 1024 * 1024

// ReadDocuments decodes one JSON document per line and calls fn for each.
// Blank lines are skipped. A line without an id gets "line-N".
func ReadDocuments(r io.Reader, fn func(Document) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxDocumentLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("line %d: decode document: %w", line, err)
		}
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("line-%d", line)
		}
		if doc.Source == "" {
			doc.Source = doc.ID
		}

		if err := fn(doc); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("line %d: %w", line+1, err)
	}
	return nil
}
