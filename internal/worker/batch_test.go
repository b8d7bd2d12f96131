package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/pipeline"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	failOn string
	calls  atomic.Int32
}

func (m *mockAnalyzer) report(source string) (*model.Report, error) {
	m.calls.Add(1)
	time.Sleep(time.Millisecond)
	if m.failOn != "" && strings.Contains(source, m.failOn) {
		return nil, errors.New("analyze error")
	}
	return &model.Report{Source: source}, nil
}

func (m *mockAnalyzer) Analyze(ctx context.Context, doc pipeline.Document) (*model.Report, error) {
	return m.report(doc.ID)
}

func (m *mockAnalyzer) ScanURL(ctx context.Context, rawURL string) (*model.Report, error) {
	return m.report(rawURL)
}

func newTestProcessor(a Analyzer) *BatchProcessor {
	return NewBatchProcessor(a, model.ConcurrencyConfig{Workers: 3, QueueSize: 2}, nil)
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	processor := newTestProcessor(&mockAnalyzer{})

	var urls []string
	for _, host := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		urls = append(urls, "http://"+host+".example.com")
	}

	results := processor.ProcessURLs(context.Background(), urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Source, res.Error)
		}
		if res.Index != i || res.Source != urls[i] {
			t.Errorf("result %d out of order: index %d source %s", i, res.Index, res.Source)
		}
		if res.Report == nil || res.Report.Source != urls[i] {
			t.Errorf("expected report for %s", urls[i])
		}
	}
}

func TestBatchProcessor_ProcessDocuments(t *testing.T) {
	analyzer := &mockAnalyzer{failOn: "bad"}
	processor := newTestProcessor(analyzer)

	docs := []pipeline.Document{{ID: "one"}, {ID: "bad-two"}, {ID: "three"}}
	results := processor.ProcessDocuments(context.Background(), docs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Error == nil || results[1].Report != nil {
		t.Errorf("expected error and no report for bad document, got %+v", results[1])
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("expected good documents to succeed")
	}
	if analyzer.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", analyzer.calls.Load())
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := newTestProcessor(&mockAnalyzer{})

	if results := processor.ProcessURLs(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
	if results := processor.ProcessDocuments(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := newTestProcessor(&mockAnalyzer{})
	results := processor.ProcessURLs(ctx, []string{"http://a", "http://b", "http://c"})

	if len(results) != 3 {
		t.Fatalf("every item should have a result, got %d", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("result %d has index %d", i, res.Index)
		}
		if res.Error != nil && !errors.Is(res.Error, context.Canceled) {
			t.Errorf("unexpected error: %v", res.Error)
		}
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeTemp(t, `http://example.com
# comment
https://google.com
   
http://example.com
http://bing.com   `)

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}
	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadURLsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchResult_GetError(t *testing.T) {
	r1 := &BatchResult{Source: "http://example.com"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("scan failed")
	r2 := &BatchResult{Source: "http://example.com", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "http://example.com\nhttps://google.com\n# comment\n\nhttp://bing.com\n")

	results, err := newTestProcessor(&mockAnalyzer{}).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	if _, err := newTestProcessor(&mockAnalyzer{}).ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
