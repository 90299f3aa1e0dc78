// Package repository is the persistence boundary used by the admin handlers.
//
// Records are property maps. Each operation names the data-source class and
// the primary key field resolved by the configuration pipeline; the
// repository itself knows nothing about entity configuration.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no record has the requested identifier.
var ErrNotFound = errors.New("repository: record not found")

// ErrDuplicate is returned by Create when the identifier is already taken.
var ErrDuplicate = errors.New("repository: duplicate identifier")

// Record is one stored item.
type Record = map[string]any

// Query selects a page of records of one class.
type Query struct {
	Class      string
	PrimaryKey string

	// Search matches records whose SearchFields contain it, ignoring case.
	Search       string
	SearchFields []string

	SortField     string
	SortDirection string

	// Filter is a conjunction of "property = value" terms joined by AND.
	Filter string

	Page    int
	PerPage int
}

// Page is one page of query results.
type Page struct {
	Items   []Record `json:"items"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
	Total   int      `json:"total"`
}

// HasNext reports whether another page follows this one.
func (p *Page) HasNext() bool {
	return p.Page*p.PerPage < p.Total
}

// Pages returns the number of pages, at least one.
func (p *Page) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Repository persists records.
type Repository interface {
	Find(ctx context.Context, class, primaryKey, id string) (Record, error)
	Query(ctx context.Context, q Query) (*Page, error)
	Create(ctx context.Context, class, primaryKey string, rec Record) error
	Update(ctx context.Context, class, primaryKey string, rec Record) error
	Delete(ctx context.Context, class, primaryKey, id string) error
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type filterTerm struct {
	property string
	value    string
}

// parseFilter splits "a = 1 AND b = 'x'" into terms. Values may be quoted
// with single or double quotes.
func parseFilter(filter string) ([]filterTerm, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}

	var terms []filterTerm
	for _, part := range splitAnd(filter) {
		prop, value, ok := strings.Cut(part, "=")
		prop = strings.TrimSpace(prop)
		value = strings.TrimSpace(value)
		if !ok || prop == "" {
			return nil, &FilterError{Filter: filter, Term: part}
		}
		if len(value) >= 2 && (value[0] == '\'' || value[0] == '"') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		terms = append(terms, filterTerm{property: prop, value: value})
	}
	return terms, nil
}

func splitAnd(s string) []string {
	var parts []string
	fields := strings.Fields(s)
	var cur []string
	for _, f := range fields {
		if strings.EqualFold(f, "AND") {
			parts = append(parts, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	return append(parts, strings.Join(cur, " "))
}

// FilterError reports a filter expression that cannot be parsed.
type FilterError struct {
	Filter string
	Term   string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("repository: invalid filter term %q in %q", e.Term, e.Filter)
}
