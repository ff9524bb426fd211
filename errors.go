package attrs

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeTooManyRecords = "too_many_records"
	CodeInvalid        = "invalid"
	// CodeUnknownAttribute is used when an UnknownAttributeError surfaces as an issue.
	CodeUnknownAttribute = "unknown_attribute"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Attribute path (for example: people[2].name). Empty for the model itself.
	Code    string // One of the codes listed above, or a validator-defined code.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"limit":3, "got":4})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the validator name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		path := it.Path
		if path == "" {
			path = "(model)"
		}
		fmt.Fprintf(b, "%s at %s", it.Code, path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Paths returns the issue paths in order.
func (iss Issues) Paths() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Path
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Sentinel errors for errors.Is checks. The typed errors below carry details
// and match these through their Is methods.
var (
	// ErrConfiguration reports an invalid type or field declaration.
	ErrConfiguration = errors.New("attrs: invalid declaration")
	// ErrTooManyRecords reports a collection batch larger than its limit.
	ErrTooManyRecords = errors.New("attrs: too many records")
	// ErrUnknownAttribute reports a write to a field the type does not declare.
	ErrUnknownAttribute = errors.New("attrs: unknown attribute")
	// ErrUnknownMethod reports a Method reference the type does not define.
	ErrUnknownMethod = errors.New("attrs: unknown method")
	// ErrUnresolvedType reports a nested target named but never defined.
	ErrUnresolvedType = errors.New("attrs: unresolved type")
	// ErrNotDestroyable reports MarkForDestruction on a type without support for it.
	ErrNotDestroyable = errors.New("attrs: type does not support destruction marking")
)

// ConfigError is returned by Builder.Build for contradictory or incomplete
// declarations.
type ConfigError struct {
	Type   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("attrs: type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("attrs: type %s, field %s: %s", e.Type, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// TooManyRecordsError is returned when a collection assignment exceeds the
// declared limit. The collection is left untouched.
type TooManyRecordsError struct {
	Type  string
	Field string
	Limit int
	Got   int
}

func (e *TooManyRecordsError) Error() string {
	return fmt.Sprintf("attrs: %s.%s: maximum %d records are allowed, got %d", e.Type, e.Field, e.Limit, e.Got)
}

func (e *TooManyRecordsError) Is(target error) bool { return target == ErrTooManyRecords }

// Issue renders the error as a validation entry at the field path.
func (e *TooManyRecordsError) Issue() Issue {
	return Issue{
		Path:    e.Field,
		Code:    CodeTooManyRecords,
		Message: translate(CodeTooManyRecords, map[string]string{"limit": fmt.Sprint(e.Limit)}),
		Params:  map[string]any{"limit": e.Limit, "got": e.Got},
		Cause:   e,
	}
}

// UnknownAttributeError is returned by Model.Set for undeclared names.
type UnknownAttributeError struct {
	Type string
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("attrs: unknown attribute %q for %s", e.Name, e.Type)
}

func (e *UnknownAttributeError) Is(target error) bool { return target == ErrUnknownAttribute }

// Issue reports the error as a validation entry at the unknown name.
func (e *UnknownAttributeError) Issue() Issue {
	return Issue{
		Path:    e.Name,
		Code:    CodeUnknownAttribute,
		Message: translate(CodeUnknownAttribute, nil),
		Params:  map[string]any{"type": e.Type},
		Cause:   e,
	}
}

// UnknownMethodError is returned when a Method reference names nothing.
type UnknownMethodError struct {
	Type string
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("attrs: undefined method %q for %s", e.Name, e.Type)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

// UnresolvedTypeError is returned on first use of a nested field whose target
// type name is not registered.
type UnresolvedTypeError struct {
	Name string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("attrs: type %q is not defined", e.Name)
}

func (e *UnresolvedTypeError) Is(target error) bool { return target == ErrUnresolvedType }
