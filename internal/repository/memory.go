package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/adminpanel/internal/access"
)

// Memory is an in-process Repository. Records are copied on the way in
// and out so callers never share maps with the store.
type Memory struct {
	mu      sync.RWMutex
	classes map[string]*table
}

type table struct {
	rows   map[string]Record
	order  []string
	nextID int64
}

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{classes: make(map[string]*table)}
}

func (m *Memory) table(class string) *table {
	t, ok := m.classes[class]
	if !ok {
		t = &table{rows: make(map[string]Record)}
		m.classes[class] = t
	}
	return t
}

// Find returns a copy of the record whose primaryKey equals id.
func (m *Memory) Find(ctx context.Context, class, primaryKey, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.classes[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	return copyRecord(rec), nil
}

// Create stores rec. A missing identifier is assigned from a per-class
// sequence and written back into rec.
func (m *Memory) Create(ctx context.Context, class, primaryKey string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(class)
	id := access.String(rec[primaryKey])
	if id == "" {
		t.nextID++
		rec[primaryKey] = t.nextID
		id = strconv.FormatInt(t.nextID, 10)
	} else if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > t.nextID {
		t.nextID = n
	}
	if _, exists := t.rows[id]; exists {
		return fmt.Errorf("%w: %s %s=%s", ErrDuplicate, class, primaryKey, id)
	}

	t.rows[id] = copyRecord(rec)
	t.order = append(t.order, id)
	return nil
}

// Update replaces the stored record with the same identifier.
func (m *Memory) Update(ctx context.Context, class, primaryKey string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := access.String(rec[primaryKey])
	t, ok := m.classes[class]
	if !ok {
		return fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	t.rows[id] = copyRecord(rec)
	return nil
}

// Delete removes the record whose primaryKey equals id.
func (m *Memory) Delete(ctx context.Context, class, primaryKey, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.classes[class]
	if !ok {
		return fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%w: %s %s=%s", ErrNotFound, class, primaryKey, id)
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	return nil
}

// Query filters, searches, sorts and pages the records of q.Class.
// Unsorted results keep insertion order.
func (m *Memory) Query(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms, err := parseFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	var matched []Record
	if t, ok := m.classes[q.Class]; ok {
		for _, id := range t.order {
			rec := t.rows[id]
			if matchesFilter(rec, terms) && matchesSearch(rec, q.Search, q.SearchFields) {
				matched = append(matched, copyRecord(rec))
			}
		}
	}
	m.mu.RUnlock()

	if q.SortField != "" {
		desc := strings.EqualFold(q.SortDirection, "DESC")
		slices.SortStableFunc(matched, func(a, b Record) int {
			c := compareValues(a[q.SortField], b[q.SortField])
			if desc {
				return -c
			}
			return c
		})
	}

	page := max(q.Page, 1)
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = len(matched)
	}

	out := &Page{Page: page, PerPage: perPage, Total: len(matched), Items: []Record{}}
	start := (page - 1) * perPage
	if start < len(matched) {
		end := min(start+perPage, len(matched))
		out.Items = matched[start:end]
	}
	return out, nil
}

// Len returns the number of records stored for class.
func (m *Memory) Len(class string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.classes[class]; ok {
		return len(t.rows)
	}
	return 0
}

func matchesFilter(rec Record, terms []filterTerm) bool {
	for _, term := range terms {
		if access.String(rec[term.property]) != term.value {
			return false
		}
	}
	return true
}

func matchesSearch(rec Record, search string, fields []string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(access.String(rec[f])), needle) {
			return true
		}
	}
	return false
}

// compareValues orders nil first, then numbers, then everything else by
// string form.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	fa, aok := number(a)
	fb, bok := number(b)
	if aok && bok {
		return cmp.Compare(fa, fb)
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return cmp.Compare(boolRank(ba), boolRank(bb))
		}
	}
	return strings.Compare(access.String(a), access.String(b))
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
