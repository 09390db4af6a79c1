package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/wikiscope/internal/model"
)

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("blank input clears without requests", func(t *testing.T) {
		t.Parallel()

		src := newFakeSource()
		rec := &recordingRenderer{}
		r := NewRunner(newTestPipeline(src, false), rec, WithRunnerLogger(quietLogger()))

		for _, input := range []string{"", "   ", "\n\t"} {
			lookup, err := r.Run(context.Background(), input)
			if !errors.Is(err, model.ErrEmptyQuery) {
				t.Errorf("Run(%q) error = %v, want ErrEmptyQuery", input, err)
			}
			if lookup != nil {
				t.Errorf("Run(%q) lookup = %+v, want nil", input, lookup)
			}
		}

		if src.total() != 0 {
			t.Errorf("calls = %d, want 0", src.total())
		}
		for _, u := range rec.snapshot() {
			if u.Kind != model.UpdateReset || u.Message != "" {
				t.Errorf("update = %+v, want blank reset", u)
			}
		}
	})

	t.Run("trims the query and assigns tokens", func(t *testing.T) {
		t.Parallel()

		r := NewRunner(newTestPipeline(newFakeSource(), false), nil)

		first, err := r.Run(context.Background(), "  einstein  ")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		second, err := r.Run(context.Background(), "curie")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if first.Query != "einstein" {
			t.Errorf("Query = %q", first.Query)
		}
		if second.Token <= first.Token || r.Latest() != second.Token {
			t.Errorf("tokens = %d, %d, latest = %d", first.Token, second.Token, r.Latest())
		}
	})

	t.Run("superseded lookup does not reach the display", func(t *testing.T) {
		t.Parallel()

		src := newFakeSource()
		entered := make(chan struct{})
		release := make(chan struct{})
		src.searchHook = func(_ context.Context, query string) {
			if query == "slow" {
				close(entered)
				<-release
			}
		}

		rec := &recordingRenderer{}
		r := NewRunner(newTestPipeline(src, false), rec)

		done := make(chan *model.Lookup)
		go func() {
			lookup, _ := r.Run(context.Background(), "slow") //nolint:errcheck // outcome checked below
			done <- lookup
		}()
		<-entered

		fast, err := r.Run(context.Background(), "fast")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		close(release)
		slow := <-done

		if !slow.Succeeded() {
			t.Errorf("slow lookup Outcome = %+v", slow.Outcome)
		}
		for _, u := range rec.snapshot() {
			if u.Token == slow.Token && u.Kind != model.UpdateReset {
				t.Errorf("superseded update rendered: %+v", u)
			}
		}

		var fastPanels int
		for _, u := range rec.snapshot() {
			if u.Token == fast.Token && u.Kind == model.UpdatePanel {
				fastPanels++
			}
		}
		if fastPanels != 5 {
			t.Errorf("fast panels = %d, want 5", fastPanels)
		}
	})
}
