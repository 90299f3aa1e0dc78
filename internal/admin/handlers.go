package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/roach88/adminpanel/internal/access"
	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/dispatch"
	"github.com/roach88/adminpanel/internal/event"
	"github.com/roach88/adminpanel/internal/redirect"
	"github.com/roach88/adminpanel/internal/repository"
)

// defaultHandlers implements every built-in action and extension point.
type defaultHandlers struct {
	c *Controller
}

func (h *defaultHandlers) Handlers() map[string]dispatch.Handler {
	return map[string]dispatch.Handler{
		"listAction":         h.list,
		"showAction":         h.show,
		"newAction":          h.new,
		"editAction":         h.edit,
		"deleteAction":       h.delete,
		"searchAction":       h.search,
		"autocompleteAction": h.autocomplete,

		"createNewEntity":  h.createNewEntity,
		"prePersistEntity": noop,
		"persistEntity":    h.persistEntity,
		"preUpdateEntity":  noop,
		"updateEntity":     h.updateEntity,
		"preRemoveEntity":  noop,
		"removeEntity":     h.removeEntity,

		"createListQueryBuilder":   h.createListQueryBuilder,
		"createSearchQueryBuilder": h.createSearchQueryBuilder,
		"renderTemplate":           h.renderTemplate,
		"resolveSubject":           noop,
	}
}

func noop(context.Context, ...any) (any, error) {
	return nil, nil
}

func (h *defaultHandlers) list(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreList, nil)

	q := ex.Request.Query
	page, err := ex.findAll(ctx, ex.Request.Page(), ex.Entity.List.MaxResults,
		q.Get("sortField"), q.Get("sortDirection"), ex.Entity.List.DQLFilter)
	if err != nil {
		return nil, err
	}

	fields := ex.Entity.List.Fields
	ex.publish(ctx, event.PostList, event.PagePayload{Page: page, Fields: fields})

	return ex.render(ctx, config.ViewList, config.ViewList, map[string]any{
		"paginator": page,
		"fields":    fields,
	})
}

func (h *defaultHandlers) show(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreShow, nil)
	if err := ex.requireItem(); err != nil {
		return nil, err
	}

	fields := ex.Entity.Show.Fields
	ex.publish(ctx, event.PostShow, event.ItemPayload{Item: ex.Item, Fields: fields})

	return ex.render(ctx, config.ViewShow, config.ViewShow, map[string]any{
		"entity": ex.Item,
		"fields": fields,
	})
}

func (h *defaultHandlers) new(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreNew, nil)

	out, err := ex.Call(ctx, "createNew<EntityName>Entity")
	if err != nil {
		return nil, err
	}
	item, ok := out.(repository.Record)
	if !ok || item == nil {
		return nil, fmt.Errorf("createNewEntity returned %T, want repository.Record", out)
	}
	ex.Item = item

	fields := ex.Entity.New.Fields
	if ex.Request.IsSubmitted() {
		violations := bindForm(ex.Entity, fields, ex.Request.Form, item)
		if len(violations) == 0 {
			ex.publish(ctx, event.PrePersist, event.WritePayload{Item: item})
			if err := ex.hook(ctx, "prePersist<EntityName>Entity", item); err != nil {
				return nil, err
			}
			if _, err := ex.Call(ctx, "persist<EntityName>Entity", item); err != nil {
				return nil, err
			}
			ex.publish(ctx, event.PostPersist, event.WritePayload{Item: item})
			return ex.redirectToReferrer()
		}
		return ex.renderInvalid(ctx, config.ViewNew, fields, violations)
	}

	ex.publish(ctx, event.PostNew, event.ItemPayload{Item: item, Fields: fields})
	return ex.render(ctx, config.ViewNew, config.ViewNew, map[string]any{
		"entity":        item,
		"entity_fields": fields,
	})
}

func (h *defaultHandlers) edit(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreEdit, nil)
	if err := ex.requireItem(); err != nil {
		return nil, err
	}
	item := ex.Item
	q := ex.Request.Query

	if property := q.Get("property"); ex.Request.XHR && property != "" {
		newValue := strings.ToLower(q.Get("newValue")) == "true"
		field, ok := ex.Entity.List.Field(property)
		if !ok || field.DataType != config.DataTypeToggle {
			return nil, fmt.Errorf("the type of the %q property is not %q", property, config.DataTypeToggle)
		}
		if err := ex.updateProperty(ctx, item, property, newValue); err != nil {
			return nil, err
		}
		body := "0"
		if newValue {
			body = "1"
		}
		return &Response{Status: http.StatusOK, Body: body}, nil
	}

	fields := ex.Entity.Edit.Fields
	if ex.Request.IsSubmitted() {
		violations := bindForm(ex.Entity, fields, ex.Request.Form, item)
		if len(violations) == 0 {
			ex.publish(ctx, event.PreUpdate, event.WritePayload{Item: item})
			if err := ex.hook(ctx, "preUpdate<EntityName>Entity", item); err != nil {
				return nil, err
			}
			if _, err := ex.Call(ctx, "update<EntityName>Entity", item); err != nil {
				return nil, err
			}
			ex.publish(ctx, event.PostUpdate, event.WritePayload{Item: item})
			return ex.redirectToReferrer()
		}
		return ex.renderInvalid(ctx, config.ViewEdit, fields, violations)
	}

	ex.publish(ctx, event.PostEdit, nil)
	return ex.render(ctx, config.ViewEdit, config.ViewEdit, map[string]any{
		"entity":        item,
		"entity_fields": fields,
	})
}

func (h *defaultHandlers) delete(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreDelete, nil)

	if ex.Request.Method != http.MethodDelete {
		target := redirect.Target{
			Route:  redirect.RouteAdmin,
			Params: map[string]string{"action": "list", "entity": ex.Entity.Name},
		}
		return redirectTo(target.Href(h.c.routes)), nil
	}
	if err := ex.requireItem(); err != nil {
		return nil, err
	}

	item := ex.Item
	ex.publish(ctx, event.PreRemove, event.WritePayload{Item: item})
	if err := ex.hook(ctx, "preRemove<EntityName>Entity", item); err != nil {
		return nil, err
	}
	if _, err := ex.Call(ctx, "remove<EntityName>Entity", item); err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PostRemove, event.WritePayload{Item: item})
	ex.publish(ctx, event.PostDelete, nil)

	return ex.redirectToReferrer()
}

func (h *defaultHandlers) search(ctx context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	ex.publish(ctx, event.PreSearch, nil)

	q := ex.Request.Query
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		params := map[string]string{}
		for k := range q {
			params[k] = q.Get(k)
		}
		params["action"] = "list"
		delete(params, "query")
		target := redirect.Target{Route: redirect.RouteAdmin, Params: params}
		return redirectTo(target.Href(h.c.routes)), nil
	}

	search := ex.Entity.Search
	page, err := ex.findBy(ctx, query, properties(search.Fields), ex.Request.Page(),
		ex.Entity.List.MaxResults, q.Get("sortField"), q.Get("sortDirection"), search.DQLFilter)
	if err != nil {
		return nil, err
	}

	fields := ex.Entity.List.Fields
	ex.publish(ctx, event.PostSearch, event.PagePayload{Page: page, Fields: fields, Query: query})

	return ex.render(ctx, config.ViewSearch, config.ViewList, map[string]any{
		"paginator": page,
		"fields":    fields,
		"query":     query,
	})
}

func (h *defaultHandlers) createNewEntity(_ context.Context, args ...any) (any, error) {
	if _, err := ExchangeFrom(args); err != nil {
		return nil, err
	}
	return repository.Record{}, nil
}

func (h *defaultHandlers) persistEntity(ctx context.Context, args ...any) (any, error) {
	ex, item, err := writeArgs(args)
	if err != nil {
		return nil, err
	}
	return nil, h.c.repo.Create(ctx, ex.DataClass(), ex.Entity.PrimaryKeyFieldName, item)
}

func (h *defaultHandlers) updateEntity(ctx context.Context, args ...any) (any, error) {
	ex, item, err := writeArgs(args)
	if err != nil {
		return nil, err
	}
	return nil, h.c.repo.Update(ctx, ex.DataClass(), ex.Entity.PrimaryKeyFieldName, item)
}

func (h *defaultHandlers) removeEntity(ctx context.Context, args ...any) (any, error) {
	ex, item, err := writeArgs(args)
	if err != nil {
		return nil, err
	}
	pk := ex.Entity.PrimaryKeyFieldName
	return nil, h.c.repo.Delete(ctx, ex.DataClass(), pk, access.String(item[pk]))
}

// createListQueryBuilder args: exchange, sortDirection, sortField, filter.
func (h *defaultHandlers) createListQueryBuilder(_ context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	dir, err := Arg[string](args, 1)
	if err != nil {
		return nil, err
	}
	field, err := Arg[string](args, 2)
	if err != nil {
		return nil, err
	}
	filter, err := Arg[string](args, 3)
	if err != nil {
		return nil, err
	}
	return repository.Query{
		Class:         ex.DataClass(),
		PrimaryKey:    ex.Entity.PrimaryKeyFieldName,
		SortField:     field,
		SortDirection: dir,
		Filter:        filter,
	}, nil
}

// createSearchQueryBuilder args: exchange, query, searchable fields,
// sortField, sortDirection, filter.
func (h *defaultHandlers) createSearchQueryBuilder(_ context.Context, args ...any) (any, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, err
	}
	query, err := Arg[string](args, 1)
	if err != nil {
		return nil, err
	}
	fields, err := Arg[[]string](args, 2)
	if err != nil {
		return nil, err
	}
	sortField, err := Arg[string](args, 3)
	if err != nil {
		return nil, err
	}
	dir, err := Arg[string](args, 4)
	if err != nil {
		return nil, err
	}
	filter, err := Arg[string](args, 5)
	if err != nil {
		return nil, err
	}
	return repository.Query{
		Class:         ex.DataClass(),
		PrimaryKey:    ex.Entity.PrimaryKeyFieldName,
		Search:        query,
		SearchFields:  fields,
		SortField:     sortField,
		SortDirection: dir,
		Filter:        filter,
	}, nil
}

// renderTemplate args: exchange, view, template, params.
func (h *defaultHandlers) renderTemplate(_ context.Context, args ...any) (any, error) {
	if _, err := ExchangeFrom(args); err != nil {
		return nil, err
	}
	view, err := Arg[string](args, 1)
	if err != nil {
		return nil, err
	}
	tmpl, err := Arg[string](args, 2)
	if err != nil {
		return nil, err
	}
	params, err := Arg[map[string]any](args, 3)
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, View: view, Template: tmpl, Params: params}, nil
}

func writeArgs(args []any) (*Exchange, repository.Record, error) {
	ex, err := ExchangeFrom(args)
	if err != nil {
		return nil, nil, err
	}
	item, err := Arg[repository.Record](args, 1)
	if err != nil {
		return nil, nil, err
	}
	return ex, item, nil
}

func (ex *Exchange) requireItem() error {
	if ex.Item == nil {
		return apperr.EntityNotFound(ex.Entity.Name, ex.Entity.PrimaryKeyFieldName, ex.Request.Query.Get("id"))
	}
	return nil
}

// findAll pages the entity's records through the list query builder.
func (ex *Exchange) findAll(ctx context.Context, page, perPage int, sortField, sortDirection, filter string) (*repository.Page, error) {
	sortDirection = config.NormalizeDirection(sortDirection)

	out, err := ex.Call(ctx, "create<EntityName>ListQueryBuilder", sortDirection, sortField, filter)
	if err != nil {
		return nil, err
	}
	q, ok := out.(repository.Query)
	if !ok {
		return nil, fmt.Errorf("createListQueryBuilder returned %T, want repository.Query", out)
	}
	ex.publish(ctx, event.PostListQueryBuilder, event.QueryPayload{Query: q})

	q.Page, q.PerPage = page, perPage
	return ex.c.repo.Query(ctx, q)
}

// findBy pages the records matching query through the search query builder.
func (ex *Exchange) findBy(ctx context.Context, query string, fields []string, page, perPage int, sortField, sortDirection, filter string) (*repository.Page, error) {
	sortDirection = config.NormalizeDirection(sortDirection)

	out, err := ex.Call(ctx, "create<EntityName>SearchQueryBuilder", query, fields, sortField, sortDirection, filter)
	if err != nil {
		return nil, err
	}
	q, ok := out.(repository.Query)
	if !ok {
		return nil, fmt.Errorf("createSearchQueryBuilder returned %T, want repository.Query", out)
	}
	ex.publish(ctx, event.PostSearchQueryBuilder, event.QueryPayload{Query: q})

	q.Page, q.PerPage = page, perPage
	return ex.c.repo.Query(ctx, q)
}

// updateProperty flips one property in place and persists the record.
func (ex *Exchange) updateProperty(ctx context.Context, item repository.Record, property string, value bool) error {
	if !access.IsWritable(item, property) {
		return fmt.Errorf("the %q property of the %q entity is not writable", property, ex.Entity.Name)
	}
	if err := access.Set(item, property, value); err != nil {
		return err
	}

	ex.publish(ctx, event.PreUpdate, event.WritePayload{Item: item, NewValue: &value})
	if err := ex.hook(ctx, "preUpdate<EntityName>Entity", item); err != nil {
		return err
	}
	if err := ex.c.repo.Update(ctx, ex.DataClass(), ex.Entity.PrimaryKeyFieldName, item); err != nil {
		return err
	}
	ex.publish(ctx, event.PostUpdate, event.WritePayload{Item: item, NewValue: &value})
	ex.publish(ctx, event.PostEdit, nil)
	return nil
}

func (ex *Exchange) render(ctx context.Context, view, templateView string, params map[string]any) (*Response, error) {
	out, err := ex.Call(ctx, "render<EntityName>Template", view, ex.Entity.Templates[templateView], params)
	if err != nil {
		return nil, err
	}
	return asResponse("renderTemplate", out)
}

func (ex *Exchange) renderInvalid(ctx context.Context, view string, fields []config.FieldConfig, violations map[string]string) (*Response, error) {
	res, err := ex.render(ctx, view, view, map[string]any{
		"entity":        ex.Item,
		"entity_fields": fields,
		"errors":        violations,
	})
	if err != nil {
		return nil, err
	}
	res.Status = http.StatusUnprocessableEntity
	return res, nil
}

func properties(fields []config.FieldConfig) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Virtual {
			out = append(out, f.Property)
		}
	}
	return out
}
