package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/repository"
)

var formValidator = validator.New()

// bindForm copies submitted values of the view's editable fields into item,
// converting them to the property's schema type. It returns the violations
// keyed by property; item is only partially updated when there are any.
func bindForm(e *config.EntityConfig, fields []config.FieldConfig, form url.Values, item repository.Record) map[string]string {
	violations := map[string]string{}
	for _, f := range fields {
		if f.Virtual || f.Property == e.PrimaryKeyFieldName {
			continue
		}
		prop, known := e.Properties[f.Property]
		if known && prop.IsAssociation() {
			continue
		}

		raw, present := form[f.Property]
		value := ""
		if present && len(raw) > 0 {
			value = strings.TrimSpace(raw[0])
		}

		if prop.Type == "boolean" {
			item[f.Property] = isTruthy(value)
			continue
		}
		if !present && !known {
			continue
		}

		if msg := checkField(prop, value); msg != "" {
			violations[f.Property] = msg
			continue
		}
		v, err := convert(prop.Type, value)
		if err != nil {
			violations[f.Property] = err.Error()
			continue
		}
		item[f.Property] = v
	}
	return violations
}

func checkField(prop config.PropertyMetadata, value string) string {
	var tags []string
	if !prop.Nullable {
		tags = append(tags, "required")
	} else {
		tags = append(tags, "omitempty")
	}
	if prop.Length > 0 {
		tags = append(tags, "max="+strconv.Itoa(prop.Length))
	}

	err := formValidator.Var(value, strings.Join(tags, ","))
	if err == nil {
		return ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return "this value should not be blank"
		case "max":
			return fmt.Sprintf("this value is too long, it should have %d characters or less", prop.Length)
		}
	}
	return err.Error()
}

func convert(typ, value string) (any, error) {
	if value == "" {
		return nil, nil
	}
	switch typ {
	case "integer", "smallint", "bigint":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("this value should be an integer")
		}
		return n, nil
	case "decimal", "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("this value should be a number")
		}
		return f, nil
	default:
		return value, nil
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
