package admin

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Request is one admin request as seen by the controller.
type Request struct {
	Method string

	// Query holds the routing parameters: entity, action, id, page,
	// sortField, sortDirection, query, referer, menuIndex, submenuIndex.
	Query url.Values

	// Form holds submitted field values for new and edit.
	Form url.Values

	// XHR marks asynchronous requests such as toggle edits.
	XHR bool
}

// Param returns the query parameter name, or def when it is absent.
func (r *Request) Param(name, def string) string {
	if r.Query.Has(name) {
		return r.Query.Get(name)
	}
	return def
}

// Page returns the 1-based page parameter.
func (r *Request) Page() int {
	n, err := strconv.Atoi(r.Query.Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// IsSubmitted reports whether the request carries a form submission.
func (r *Request) IsSubmitted() bool {
	return r.Method == http.MethodPost || r.Method == http.MethodPut
}

func (r *Request) clone() *Request {
	out := &Request{
		Method: strings.ToUpper(r.Method),
		Query:  url.Values{},
		Form:   url.Values{},
		XHR:    r.XHR,
	}
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	for k, v := range r.Query {
		out.Query[k] = append([]string(nil), v...)
	}
	for k, v := range r.Form {
		out.Form[k] = append([]string(nil), v...)
	}
	return out
}

// Response is the outcome of an admin request. Exactly one of Location,
// View, JSON and Body is meaningful, depending on the handler.
type Response struct {
	Status int `json:"status"`

	// Location is the redirect target.
	Location string `json:"location,omitempty"`

	// View and Template name what would be rendered with Params.
	View     string         `json:"view,omitempty"`
	Template string         `json:"template,omitempty"`
	Params   map[string]any `json:"params,omitempty"`

	JSON any    `json:"json,omitempty"`
	Body string `json:"body,omitempty"`
}

// IsRedirect reports whether r is a redirect.
func (r *Response) IsRedirect() bool {
	return r.Location != ""
}

func redirectTo(location string) *Response {
	return &Response{Status: http.StatusFound, Location: location}
}
