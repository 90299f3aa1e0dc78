// Package redirect decides where to navigate after a write action.
//
// Resolve walks a fixed fallback chain and stops at the first step that
// applies:
//
//  1. list allowed: the decoded referer URL, else the entity's list view
//  2. coming from new or edit with edit allowed: the edit view of the record
//  3. coming from new with new allowed: the new view again
//  4. the application homepage
//
// A later step is never taken while an earlier one applies, even if the
// later target would also be reachable.
package redirect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/adminpanel/internal/access"
	"github.com/roach88/adminpanel/internal/config"
)

// RouteAdmin is the route that serves every admin action.
const RouteAdmin = "admin"

// Step identifies which link of the fallback chain produced a Target.
type Step string

const (
	StepRefererURL Step = "referer_url"
	StepList       Step = "list"
	StepEdit       Step = "edit"
	StepNew        Step = "new"
	StepHomepage   Step = "homepage"
)

// Input is everything the decision depends on.
type Input struct {
	// Entity is the current entity name.
	Entity string

	// RefererAction is the action the request came from.
	RefererAction string

	// RefererURL is the url-encoded "referer" request parameter.
	RefererURL string

	MenuIndex    string
	SubmenuIndex string

	// ID is the "id" request parameter.
	ID string

	// Item is the record just created or edited. With RefererAction "new"
	// the edit target reads its identifier from Item via PrimaryKey.
	Item       any
	PrimaryKey string

	// Allowed reports whether an action is enabled for the entity.
	Allowed func(action string) bool

	Homepage config.Homepage
}

// decodeReferer query-unescapes a referer. A malformed encoding is used
// as given.
func decodeReferer(raw string) string {
	if u, err := url.QueryUnescape(raw); err == nil {
		return u
	}
	return raw
}

// Target is a navigation destination. Exactly one of URL and Route is set.
type Target struct {
	Step   Step              `json:"step"`
	URL    string            `json:"url,omitempty"`
	Route  string            `json:"route,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Resolve returns the navigation target for in.
func Resolve(in Input) (Target, error) {
	allowed := in.Allowed
	if allowed == nil {
		allowed = func(string) bool { return true }
	}

	if allowed("list") {
		if in.RefererURL != "" {
			return Target{Step: StepRefererURL, URL: decodeReferer(in.RefererURL)}, nil
		}
		return in.adminTarget(StepList, "list", ""), nil
	}

	if (in.RefererAction == "new" || in.RefererAction == "edit") && allowed("edit") {
		id := in.ID
		if in.RefererAction == "new" {
			v, err := access.Get(in.Item, in.PrimaryKey)
			if err != nil {
				return Target{}, fmt.Errorf("created item identifier: %w", err)
			}
			id = access.String(v)
		}
		return in.adminTarget(StepEdit, "edit", id), nil
	}

	if in.RefererAction == "new" && allowed("new") {
		return in.adminTarget(StepNew, "new", ""), nil
	}

	return Homepage(in.Homepage), nil
}

// Homepage returns the configured homepage target: the URL verbatim when
// set, else the route with its params.
func Homepage(h config.Homepage) Target {
	if h.URL != "" {
		return Target{Step: StepHomepage, URL: h.URL}
	}
	params := make(map[string]string, len(h.Params))
	for k, v := range h.Params {
		params[k] = v
	}
	return Target{Step: StepHomepage, Route: h.Route, Params: params}
}

func (in Input) adminTarget(step Step, action, id string) Target {
	params := map[string]string{
		"action": action,
		"entity": in.Entity,
	}
	if in.MenuIndex != "" {
		params["menuIndex"] = in.MenuIndex
	}
	if in.SubmenuIndex != "" {
		params["submenuIndex"] = in.SubmenuIndex
	}
	if id != "" {
		params["id"] = id
	}
	return Target{Step: step, Route: RouteAdmin, Params: params}
}

// Href renders t as a location. Routes map to paths through routes; a
// route missing from routes renders as "/<route>".
func (t Target) Href(routes map[string]string) string {
	if t.URL != "" {
		return t.URL
	}
	path, ok := routes[t.Route]
	if !ok {
		path = "/" + strings.TrimPrefix(t.Route, "/")
	}
	if len(t.Params) == 0 {
		return path
	}

	q := make(url.Values, len(t.Params))
	for k, v := range t.Params {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}
