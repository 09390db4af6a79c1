package report

import (
	"io"
	"strings"
	"sync"

	"github.com/nao1215/wikiscope/internal/model"
)

// StreamRenderer prints each display update as soon as it arrives.
// It implements pipeline.Renderer and is safe for concurrent use.
type StreamRenderer struct {
	mu     sync.Mutex
	output io.Writer
	err    error
}

// NewStreamRenderer creates a StreamRenderer writing to output.
func NewStreamRenderer(output io.Writer) *StreamRenderer {
	return &StreamRenderer{output: output}
}

// Render writes the text form of update. After the first write error
// further updates are dropped; see Err.
func (r *StreamRenderer) Render(update model.PanelUpdate) {
	var sb strings.Builder
	writeUpdate(&sb, update)
	if sb.Len() == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.output, sb.String())
}

// Err returns the first write error, if any.
func (r *StreamRenderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
