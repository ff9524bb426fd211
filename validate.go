package attrs

import (
	"context"
	"errors"
	"fmt"

	"github.com/reoring/attrs/cast"
	"github.com/reoring/attrs/i18n"
)

type contextKey int

const (
	_ctxKeyValidationContext contextKey = iota
)

// WithValidationContext returns a child context naming the validation
// context (for example "create" or "update") for validators to inspect.
func WithValidationContext(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, _ctxKeyValidationContext, name)
}

// ValidationContext returns the name set by WithValidationContext, or "".
func ValidationContext(ctx context.Context) string {
	v, _ := ctx.Value(_ctxKeyValidationContext).(string)
	return v
}

func translate(code string, data map[string]string) string { return i18n.T(code, data) }

// issuer is implemented by errors that know their issue form.
type issuer interface{ Issue() Issue }

// Validate checks the model and the nested models it holds, stores the result
// for Errors and returns it.
//
// Issues found on nested models are copied under "<field>.<path>" for One
// fields and "<field>[<index>].<path>" for Many fields unless the declaration
// turned copying or prefixes off. Models marked for destruction are skipped,
// and so is a model reached again through its own nested fields.
func (m *Model) Validate(ctx context.Context) Issues {
	return m.validate(ctx, map[*Model]bool{})
}

func (m *Model) validate(ctx context.Context, active map[*Model]bool) Issues {
	active[m] = true
	defer delete(active, m)
	var iss Issues
	for i, f := range m.typ.fields {
		if f.nested == nil {
			if it, bad := m.castIssues[i]; bad {
				iss = AppendIssues(iss, it)
				continue
			}
			if f.required && cast.Blank(m.values[i]) {
				iss = AppendIssues(iss, Issue{Path: f.name, Code: CodeRequired, Message: translate(CodeRequired, nil)})
			}
			continue
		}
		if !f.nested.copyErrors {
			continue
		}
		switch s := m.slots[i].(type) {
		case *oneSlot:
			if s.value != nil && !s.value.destroyed && !active[s.value] {
				iss = AppendIssues(iss, rebase(s.value.validate(ctx, active), f.name, f.nested.prefixErrors)...)
			}
		case *manySlot:
			for j, el := range s.items {
				if el.destroyed || active[el] {
					continue
				}
				base := fmt.Sprintf("%s[%d]", f.name, j)
				iss = AppendIssues(iss, rebase(el.validate(ctx, active), base, f.nested.prefixErrors)...)
			}
		}
	}
	for _, v := range m.typ.validators {
		err := v.fn(ctx, m)
		if err == nil {
			continue
		}
		if i2, ok := AsIssues(err); ok {
			for _, it := range i2 {
				if it.Rule == "" {
					it.Rule = v.name
				}
				iss = AppendIssues(iss, it)
			}
			continue
		}
		var src issuer
		if errors.As(err, &src) {
			it := src.Issue()
			it.Rule = v.name
			iss = AppendIssues(iss, it)
			continue
		}
		iss = AppendIssues(iss, Issue{Code: CodeInvalid, Message: err.Error(), Cause: err, Rule: v.name})
	}
	m.errors = iss
	return iss
}

// Valid runs Validate and reports whether it found nothing.
func (m *Model) Valid(ctx context.Context) bool {
	return len(m.Validate(ctx)) == 0
}

// Errors returns the issues found by the last Validate call.
func (m *Model) Errors() Issues { return m.errors }

// rebase moves child issues under base.
func rebase(child Issues, base string, prefix bool) Issues {
	if len(child) == 0 {
		return nil
	}
	out := make(Issues, 0, len(child))
	for _, it := range child {
		switch {
		case !prefix && it.Path == "":
			it.Path = base
		case !prefix:
		case it.Path == "":
			it.Path = base
		case it.Path[0] == '[':
			it.Path = base + it.Path
		default:
			it.Path = base + "." + it.Path
		}
		out = append(out, it)
	}
	return out
}
