// Package apperr defines the error taxonomy shared by the configuration
// pipeline, the action dispatcher and the admin host.
//
// Every condition is non-retryable and surfaced to the caller. Callers
// discriminate with Is (or the IsXxx helpers) and map codes to responses
// with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes an Error.
type Code string

const (
	// CodeUndefinedEntity indicates the entity name is not a key of entities.
	CodeUndefinedEntity Code = "UNDEFINED_ENTITY"

	// CodeInvalidEntityClass indicates the configured class does not exist.
	CodeInvalidEntityClass Code = "INVALID_ENTITY_CLASS"

	// CodeUnmappedEntityClass indicates the class exists but has no schema mapping.
	CodeUnmappedEntityClass Code = "UNMAPPED_ENTITY_CLASS"

	// CodeCompositePrimaryKey indicates the schema reports more than one identifier field.
	CodeCompositePrimaryKey Code = "COMPOSITE_PRIMARY_KEY_UNSUPPORTED"

	// CodeHandlerNotFound indicates neither the entity-specific nor the generic handler exists.
	CodeHandlerNotFound Code = "HANDLER_NOT_FOUND"

	// CodeForbiddenAction indicates the action is listed in disabled_actions.
	CodeForbiddenAction Code = "FORBIDDEN_ACTION"

	// CodeNotFound indicates a dotted-path lookup miss.
	CodeNotFound Code = "NOT_FOUND"

	// CodeNoEntitiesConfigured indicates the resolved tree has no entities.
	CodeNoEntitiesConfigured Code = "NO_ENTITIES_CONFIGURED"

	// CodeEntityNotFound indicates the requested item does not exist.
	CodeEntityNotFound Code = "ENTITY_NOT_FOUND"

	// CodeInvalidConfig indicates the raw configuration failed validation.
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// Error is a caller-surfaced condition with structured context.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Entity is the entity name involved, if any.
	Entity string

	// Action is the requested action, if any.
	Action string

	// Class is the data-source identifier involved, if any.
	Class string

	// Handler is the concrete handler name that was attempted.
	Handler string

	// Owner is the type that was expected to provide Handler.
	Owner string

	// Path is the dotted path of a failed lookup.
	Path string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Entity != "" && e.Action != "":
		return fmt.Sprintf("%s: %s (entity=%s, action=%s)", e.Code, e.Message, e.Entity, e.Action)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is reports whether err (or anything it wraps) is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsForbidden reports whether err is a ForbiddenAction condition.
func IsForbidden(err error) bool { return Is(err, CodeForbiddenAction) }

// IsHandlerNotFound reports whether err is a HandlerNotFound condition.
func IsHandlerNotFound(err error) bool { return Is(err, CodeHandlerNotFound) }

// IsUndefinedEntity reports whether err is an UndefinedEntity condition.
func IsUndefinedEntity(err error) bool { return Is(err, CodeUndefinedEntity) }

// IsNotFound reports whether err is a dotted-path NotFound condition.
func IsNotFound(err error) bool { return Is(err, CodeNotFound) }

// HTTPStatus maps a code to the response status the host should use.
func HTTPStatus(code Code) int {
	switch code {
	case CodeForbiddenAction:
		return http.StatusForbidden
	case CodeUndefinedEntity, CodeEntityNotFound, CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// UndefinedEntity creates an error for an entity name missing from the tree.
func UndefinedEntity(entity string) *Error {
	return &Error{
		Code:    CodeUndefinedEntity,
		Message: fmt.Sprintf("the %q entity is not defined in the configuration", entity),
		Entity:  entity,
	}
}

// InvalidEntityClass creates an error for a class that does not exist.
func InvalidEntityClass(entity, class string) *Error {
	return &Error{
		Code: CodeInvalidEntityClass,
		Message: fmt.Sprintf("the configured class %q for the path \"entities.%s\" does not exist; "+
			"did you forget to declare it in the schema section?", class, entity),
		Entity: entity,
		Class:  class,
	}
}

// UnmappedEntityClass creates an error for a class without a schema mapping.
func UnmappedEntityClass(entity, class string) *Error {
	return &Error{
		Code:    CodeUnmappedEntityClass,
		Message: fmt.Sprintf("the configured class %q for the path \"entities.%s\" is not a mapped entity", class, entity),
		Entity:  entity,
		Class:   class,
	}
}

// CompositePrimaryKey creates an error for a class with several identifier fields.
func CompositePrimaryKey(entity, class string, fields []string) *Error {
	return &Error{
		Code:    CodeCompositePrimaryKey,
		Message: fmt.Sprintf("the %q class isn't valid because it contains a composite primary key %v", class, fields),
		Entity:  entity,
		Class:   class,
	}
}

// HandlerNotFound creates an error naming the attempted handler and its owner.
func HandlerNotFound(handler, owner string) *Error {
	return &Error{
		Code:    CodeHandlerNotFound,
		Message: fmt.Sprintf("the %q handler does not exist in %s", handler, owner),
		Handler: handler,
		Owner:   owner,
	}
}

// ForbiddenAction creates an error for an action listed in disabled_actions.
func ForbiddenAction(action, entity string) *Error {
	return &Error{
		Code:    CodeForbiddenAction,
		Message: fmt.Sprintf("the %q action is disabled for this entity", action),
		Entity:  entity,
		Action:  action,
	}
}

// NotFound creates an error for a dotted-path lookup miss.
func NotFound(path, segment string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("no value at %q (segment %q is absent)", path, segment),
		Path:    path,
	}
}

// NoEntitiesConfigured creates an error for a tree without entities.
func NoEntitiesConfigured() *Error {
	return &Error{
		Code:    CodeNoEntitiesConfigured,
		Message: "the backend is empty because no entity has been configured",
	}
}

// EntityNotFound creates an error for an item id that matched nothing.
func EntityNotFound(entity, idField, id string) *Error {
	return &Error{
		Code:    CodeEntityNotFound,
		Message: fmt.Sprintf("no item found with %s=%q", idField, id),
		Entity:  entity,
		Details: map[string]string{
			"entity_id_name":  idField,
			"entity_id_value": id,
		},
	}
}

// InvalidConfig creates an error for a raw configuration that failed validation.
func InvalidConfig(path, message string) *Error {
	return &Error{
		Code:    CodeInvalidConfig,
		Message: message,
		Path:    path,
	}
}
