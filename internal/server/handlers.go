package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nao1215/wikiscope/internal/model"
	"github.com/nao1215/wikiscope/internal/pipeline"
	"github.com/nao1215/wikiscope/internal/suggest"
)

// suggestResponse is the body of /api/suggest.
type suggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// suggest returns completions for q. Upstream failures yield an empty list.
func (s *Server) suggest(c echo.Context) error {
	provider := suggest.NewProvider(s.source, nil, suggest.WithLogger(s.logger))
	items := provider.Refresh(c.Request().Context(), c.QueryParam("q"))
	return c.JSON(http.StatusOK, suggestResponse{Query: provider.Query(), Suggestions: items})
}

// lookup runs the aggregation for q and returns the finished lookup.
// A failed lookup is answered with 502 and still carries the lookup body.
func (s *Server) lookup(c echo.Context) error {
	lookup, err := s.newLookup(c.QueryParam("q"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := s.pipeline.ExecuteWithRenderer(ctx, lookup, nil); err != nil {
		s.logger.Warn("lookup failed", "query", lookup.Query, "error", err)
	}
	s.save(c, lookup)

	code := http.StatusOK
	if lookup.Outcome.Status == model.StatusFailed {
		code = http.StatusBadGateway
	}
	return c.JSON(code, lookup)
}

// panelEvent is one server-sent event of /api/lookup/stream.
type panelEvent struct {
	Token   uint64 `json:"token"`
	Kind    string `json:"kind"`
	Panel   string `json:"panel,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func newPanelEvent(u model.PanelUpdate) panelEvent {
	ev := panelEvent{Token: u.Token, Kind: u.Kind.String(), Message: u.Message}
	if u.Panel != model.PanelNone {
		ev.Panel = u.Panel.String()
	}
	switch {
	case u.Summary != nil:
		ev.Data = u.Summary
	case u.Metadata != nil:
		ev.Data = u.Metadata
	case u.Entity != nil:
		ev.Data = u.Entity
	case u.History != nil:
		ev.Data = u.History
	case u.Images != nil:
		ev.Data = u.Images
	}
	return ev
}

// stream runs the aggregation for q and sends every panel update as it is
// rendered, followed by a "done" event carrying the finished lookup.
func (s *Server) stream(c echo.Context) error {
	lookup, err := s.newLookup(c.QueryParam("q"))
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	// Renders are serialized by the pipeline.
	renderer := pipeline.RendererFunc(func(u model.PanelUpdate) {
		if err := writeEvent(res, "update", newPanelEvent(u)); err != nil {
			s.logger.Debug("stream write failed", "error", err)
		}
	})

	if err := s.pipeline.ExecuteWithRenderer(c.Request().Context(), lookup, renderer); err != nil {
		s.logger.Warn("lookup failed", "query", lookup.Query, "error", err)
	}
	s.save(c, lookup)

	return writeEvent(res, "done", lookup)
}

func writeEvent(res *echo.Response, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// storedLookup returns a lookup from the history database.
func (s *Server) storedLookup(c echo.Context) error {
	if s.store == nil {
		return ErrHistoryDisabled
	}
	lookup, err := s.store.GetLookupByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if lookup == nil {
		return ErrLookupNotFound
	}
	return c.JSON(http.StatusOK, lookup)
}

// historyResponse is the body of /api/history.
type historyResponse struct {
	Title   string `json:"title"`
	Lookups any    `json:"lookups"`
}

// history lists stored lookups of a title, newest first.
func (s *Server) history(c echo.Context) error {
	if s.store == nil {
		return ErrHistoryDisabled
	}
	title, err := model.NormalizeQuery(c.QueryParam("title"))
	if err != nil {
		return ErrMissingTitle
	}
	entries, err := s.store.GetLookupHistoryWithMetadata(c.Request().Context(), title)
	if err != nil {
		return err
	}
	if entries == nil {
		return c.JSON(http.StatusOK, historyResponse{Title: title, Lookups: []any{}})
	}
	return c.JSON(http.StatusOK, historyResponse{Title: title, Lookups: entries})
}

func (s *Server) newLookup(raw string) (*model.Lookup, error) {
	query, err := model.NormalizeQuery(raw)
	if err != nil {
		return nil, err
	}
	return model.NewLookup(query), nil
}

// save stores a finished lookup. Storage errors are logged, not returned.
func (s *Server) save(c echo.Context, lookup *model.Lookup) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveLookup(c.Request().Context(), lookup); err != nil {
		s.logger.Error("failed to save lookup", "id", lookup.ID, "error", err)
	}
}
