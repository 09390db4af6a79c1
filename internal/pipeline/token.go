package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/nao1215/wikiscope/internal/model"
)

// Sequencer issues lookup tokens in increasing order.
// The zero value is ready to use; the first token is 1.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new token. It becomes the latest token.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Latest returns the most recently issued token, or 0 if none was issued.
func (s *Sequencer) Latest() uint64 {
	return s.latest.Load()
}

// IsLatest reports whether token is the most recently issued one.
func (s *Sequencer) IsLatest(token uint64) bool {
	return token == s.latest.Load()
}

// latestOnly forwards updates of the latest lookup only.
type latestOnly struct {
	next Renderer
	seq  *Sequencer
	mu   sync.Mutex
}

// LatestOnly wraps r so that updates from superseded lookups are dropped.
// An update is rendered only if its token is still the latest issued by seq.
func LatestOnly(r Renderer, seq *Sequencer) Renderer {
	return &latestOnly{next: r, seq: seq}
}

// Render implements Renderer.
func (l *latestOnly) Render(update model.PanelUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.seq.IsLatest(update.Token) {
		return
	}
	l.next.Render(update)
}
