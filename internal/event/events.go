// Package event defines the lifecycle events published by the admin
// controller and the in-process bus that delivers them.
//
// Each Kind belongs to one payload family, so an Event is a tagged union:
// the Kind says which payload struct travels with it. Subscribers observe
// events; nothing they return flows back to the publisher.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/repository"
)

// Kind names a lifecycle event.
type Kind string

const (
	PreInitialize  Kind = "pre_initialize"
	PostInitialize Kind = "post_initialize"

	PreList  Kind = "pre_list"
	PostList Kind = "post_list"

	PreShow  Kind = "pre_show"
	PostShow Kind = "post_show"

	PreNew  Kind = "pre_new"
	PostNew Kind = "post_new"

	PreEdit  Kind = "pre_edit"
	PostEdit Kind = "post_edit"

	PreDelete  Kind = "pre_delete"
	PostDelete Kind = "post_delete"

	PreSearch  Kind = "pre_search"
	PostSearch Kind = "post_search"

	PreUpdate  Kind = "pre_update"
	PostUpdate Kind = "post_update"

	PrePersist  Kind = "pre_persist"
	PostPersist Kind = "post_persist"

	PreRemove  Kind = "pre_remove"
	PostRemove Kind = "post_remove"

	PostListQueryBuilder   Kind = "post_list_query_builder"
	PostSearchQueryBuilder Kind = "post_search_query_builder"
)

// Payload is implemented by the payload structs below.
type Payload interface {
	family() family
}

type family string

const (
	familyRequest family = "request"
	familyItem    family = "item"
	familyPage    family = "page"
	familyWrite   family = "write"
	familyQuery   family = "query"
)

var families = map[Kind]family{
	PreInitialize:          familyRequest,
	PostInitialize:         familyRequest,
	PreList:                familyRequest,
	PreShow:                familyRequest,
	PreNew:                 familyRequest,
	PreEdit:                familyRequest,
	PreDelete:              familyRequest,
	PreSearch:              familyRequest,
	PostDelete:             familyRequest,
	PostEdit:               familyRequest,
	PostShow:               familyItem,
	PostNew:                familyItem,
	PostList:               familyPage,
	PostSearch:             familyPage,
	PreUpdate:              familyWrite,
	PostUpdate:             familyWrite,
	PrePersist:             familyWrite,
	PostPersist:            familyWrite,
	PreRemove:              familyWrite,
	PostRemove:             familyWrite,
	PostListQueryBuilder:   familyQuery,
	PostSearchQueryBuilder: familyQuery,
}

// Kinds returns every known kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(families))
	for k := range families {
		out = append(out, k)
	}
	return out
}

// RequestPayload carries no data beyond the event scope.
type RequestPayload struct{}

// ItemPayload carries the record a view is about to render.
type ItemPayload struct {
	Item   repository.Record    `json:"item,omitempty"`
	Fields []config.FieldConfig `json:"fields,omitempty"`
}

// PagePayload carries a page of results.
type PagePayload struct {
	Page   *repository.Page     `json:"page"`
	Fields []config.FieldConfig `json:"fields,omitempty"`
	Query  string               `json:"query,omitempty"`
}

// WritePayload carries the record being persisted, updated or removed.
// NewValue is set by toggle edits.
type WritePayload struct {
	Item     repository.Record `json:"item"`
	NewValue *bool             `json:"new_value,omitempty"`
}

// QueryPayload carries the query built for list or search.
type QueryPayload struct {
	Query repository.Query `json:"query"`
}

func (RequestPayload) family() family { return familyRequest }
func (ItemPayload) family() family    { return familyItem }
func (PagePayload) family() family    { return familyPage }
func (WritePayload) family() family   { return familyWrite }
func (QueryPayload) family() family   { return familyQuery }

// Scope is the request context shared by every event of one request.
type Scope struct {
	RequestID string
	Action    string
	Config    *config.Tree
	Entity    *config.EntityConfig
}

// Event is one published lifecycle event.
type Event struct {
	ID         string
	Kind       Kind
	OccurredAt time.Time
	Scope      Scope
	Payload    Payload
}

// New builds an event, rejecting payloads that do not belong to kind.
// A nil payload becomes RequestPayload.
func New(kind Kind, scope Scope, payload Payload) (Event, error) {
	want, ok := families[kind]
	if !ok {
		return Event{}, fmt.Errorf("event: unknown kind %q", kind)
	}
	if payload == nil {
		payload = RequestPayload{}
	}
	if got := payload.family(); got != want {
		return Event{}, fmt.Errorf("event: %s expects a %s payload, got %T", kind, want, payload)
	}
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Scope:      scope,
		Payload:    payload,
	}, nil
}

// EntityName returns the scoped entity's name, or "" outside an entity.
func (e Event) EntityName() string {
	if e.Scope.Entity == nil {
		return ""
	}
	return e.Scope.Entity.Name
}

// Publisher sends events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
