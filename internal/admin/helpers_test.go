package admin

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/dispatch"
	"github.com/roach88/adminpanel/internal/event"
	"github.com/roach88/adminpanel/internal/pass"
	"github.com/roach88/adminpanel/internal/pipeline"
	"github.com/roach88/adminpanel/internal/repository"
	"github.com/roach88/adminpanel/internal/schema"
)

// testConfig has three entities:
//   - Product: list sorted by name ascending
//   - Category: list and delete disabled
//   - Report: DTO-backed
const testConfig = `{
	"schema": {
		"App.Product": {"mapping": {
			"id": ["id"],
			"fields": {
				"id": {"type": "integer"},
				"name": {"type": "string", "length": 20},
				"price": {"type": "integer", "nullable": true},
				"enabled": {"type": "boolean"}
			}
		}},
		"App.Category": {"mapping": {
			"id": ["id"],
			"fields": {
				"id": {"type": "integer"},
				"title": {"type": "string"}
			}
		}},
		"App.ReportDTO": {"properties": ["id", "total"]}
	},
	"entities": {
		"Product": {"class": "App.Product", "list": {"sort": {"field": "name", "direction": "asc"}}},
		"Category": {"class": "App.Category", "disabled_actions": ["list", "delete"]},
		"Report": {"dto_class": "App.ReportDTO"}
	}
}`

func resolvedManager(t *testing.T) *pipeline.Manager {
	t.Helper()
	raw, err := config.Decode([]byte(testConfig))
	require.NoError(t, err)
	reg, err := schema.FromConfig(raw.Schema)
	require.NoError(t, err)

	m := pipeline.New(raw)
	require.NoError(t, pass.RegisterDefaults(m, pass.Deps{Schema: reg, Locale: "en_US"}))
	return m
}

func newTestController(t *testing.T, repo repository.Repository, opts ...Option) *Controller {
	t.Helper()
	c, err := New(resolvedManager(t), repo, opts...)
	require.NoError(t, err)
	return c
}

func seedProducts(t *testing.T, repo *repository.Memory) {
	t.Helper()
	for _, rec := range []repository.Record{
		{"name": "Lamp", "price": int64(30), "enabled": false},
		{"name": "Desk", "price": int64(120), "enabled": true},
		{"name": "Chair", "price": int64(80), "enabled": true},
	} {
		require.NoError(t, repo.Create(context.Background(), "App.Product", "id", rec))
	}
}

func get(params ...string) *Request {
	return &Request{Method: "GET", Query: query(params...)}
}

func query(params ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		q.Set(params[i], params[i+1])
	}
	return q
}

// recorder is a synchronous event.Publisher.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// handlerMap adapts a plain map to dispatch.HandlerProvider.
type handlerMap map[string]dispatch.Handler

func (h handlerMap) Handlers() map[string]dispatch.Handler { return h }

type staticResolver struct {
	tree *config.Tree
}

func (s staticResolver) Resolve(context.Context) (*config.Tree, error) {
	return s.tree, nil
}
