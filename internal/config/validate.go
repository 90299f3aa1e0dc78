package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/adminpanel/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so errors read like the authored configuration.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a raw tree before it enters the pipeline. It returns every
// problem found, each an *apperr.Error with code INVALID_CONFIG.
func Validate(t *Tree) []error {
	var errs []error

	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []error{apperr.InvalidConfig("", err.Error())}
		}
		for _, fe := range verrs {
			path := trimRoot(fe.Namespace())
			errs = append(errs, apperr.InvalidConfig(path,
				fmt.Sprintf("%s fails %q validation (value %v)", path, fe.Tag(), fe.Value())))
		}
	}

	for _, name := range sortedKeys(t.Entities) {
		e := t.Entities[name]
		if e == nil {
			errs = append(errs, apperr.InvalidConfig("entities."+name, "entity configuration is empty"))
			continue
		}
		if e.Class == "" && e.DTOClass == "" {
			errs = append(errs, apperr.InvalidConfig("entities."+name,
				fmt.Sprintf("the configuration of the %q entity must define a class or a dto_class", name)))
		}
		for _, key := range resolvedKeys(e) {
			errs = append(errs, apperr.InvalidConfig("entities."+name+"."+key,
				fmt.Sprintf("%q is computed from the schema and cannot be configured", key)))
		}
	}

	for i, name := range t.EntityOrder {
		if _, ok := t.Entities[name]; !ok {
			errs = append(errs, apperr.InvalidConfig(fmt.Sprintf("entity_order.%d", i),
				fmt.Sprintf("entity_order names unknown entity %q", name)))
		}
	}

	errs = append(errs, validateMenu(t, t.Design.Menu, "design.menu")...)
	return errs
}

// resolvedKeys lists the keys of e that only the metadata pass may set.
func resolvedKeys(e *EntityConfig) []string {
	var keys []string
	if e.Introspected {
		keys = append(keys, "introspected")
	}
	if e.SchemaClass != "" {
		keys = append(keys, "schema_class")
	}
	if e.PrimaryKeyFieldName != "" {
		keys = append(keys, "primary_key_field_name")
	}
	if e.Properties != nil {
		keys = append(keys, "properties")
	}
	return keys
}

func validateMenu(t *Tree, items []MenuItem, prefix string) []error {
	var errs []error
	for i, item := range items {
		path := fmt.Sprintf("%s.%d", prefix, i)
		if item.Entity != "" {
			if _, ok := t.Entities[item.Entity]; !ok {
				errs = append(errs, apperr.InvalidConfig(path+".entity",
					fmt.Sprintf("menu item refers to unknown entity %q", item.Entity)))
			}
		}
		errs = append(errs, validateMenu(t, item.Children, path+".children")...)
	}
	return errs
}

// trimRoot drops the leading struct name validator puts on namespaces and
// converts bracketed map keys to dotted segments.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	r := strings.NewReplacer("[", ".", "]", "")
	return r.Replace(ns)
}
