package admin

import (
	"context"
	"net/http"
	"sort"

	"github.com/roach88/adminpanel/internal/access"
	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/repository"
)

// AutocompleteResult is the JSON body of the autocomplete action.
// HasNextPage is omitted when no search ran.
type AutocompleteResult struct {
	Results     []AutocompleteItem `json:"results"`
	HasNextPage *bool              `json:"has_next_page,omitempty"`
}

// AutocompleteItem is one suggestion.
type AutocompleteItem struct {
	ID   any    `json:"id"`
	Text string `json:"text"`
}

func (h *defaultHandlers) autocomplete(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	q := ex.Request.Query
	name, query := q.Get("entity"), q.Get("query")

	res := AutocompleteResult{Results: []AutocompleteItem{}}
	if name == "" || query == "" {
		return &Response{Status: http.StatusOK, JSON: res}, nil
	}

	target := ex.Config.Entity(name)
	if target == nil {
		return nil, apperr.UndefinedEntity(name)
	}

	page, err := h.c.repo.Query(ctx, repository.Query{
		Class:        dataClass(target),
		PrimaryKey:   target.PrimaryKeyFieldName,
		Search:       query,
		SearchFields: properties(target.Search.Fields),
		Page:         ex.Request.Page(),
		PerPage:      ex.Config.Show.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range page.Items {
		id, _ := access.Get(rec, target.PrimaryKeyFieldName)
		res.Results = append(res.Results, AutocompleteItem{ID: id, Text: label(target, rec)})
	}
	next := page.HasNext()
	res.HasNextPage = &next
	return &Response{Status: http.StatusOK, JSON: res}, nil
}

func dataClass(e *config.EntityConfig) string {
	return (&Exchange{Entity: e}).DataClass()
}

// label picks the display text of rec: its "name", "title" or "label"
// property, else the first non-identifier string property in name order,
// else the entity name and identifier.
func label(e *config.EntityConfig, rec repository.Record) string {
	for _, k := range []string{"name", "title", "label"} {
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == e.PrimaryKeyFieldName {
			continue
		}
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}
	return e.Name + " #" + access.String(rec[e.PrimaryKeyFieldName])
}
