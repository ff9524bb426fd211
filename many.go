package attrs

import (
	"slices"

	"github.com/reoring/attrs/cast"
)

// manySlot reconciles an ordered collection of nested models. items is nil
// while the collection is absent.
type manySlot struct {
	f     *field
	items []*Model
}

func (s *manySlot) get() any {
	if s.items == nil {
		return nil
	}
	return s.items
}

func (s *manySlot) empty() bool { return s.items == nil }

// assign reconciles a batch of submitted items with the collection.
//
// Items are matched by identity key against the working collection, which
// includes items appended earlier in the same batch. Untouched items keep
// their relative order and new ones are appended in input order. The limit is
// checked before anything changes, and membership changes are only committed
// once the whole batch went through.
func (s *manySlot) assign(owner *Model, raw any) error {
	d := s.f.nested
	if raw == nil {
		s.items = nil
		return nil
	}
	target, err := d.target.resolve()
	if err != nil {
		return err
	}
	batch, ok := asSequence(raw)
	if !ok {
		return nil
	}
	if d.hasLimit && len(batch) > d.limit {
		return &TooManyRecordsError{Type: owner.typ.name, Field: s.f.name, Limit: d.limit, Got: len(batch)}
	}

	var work []*Model
	if d.replace {
		work = make([]*Model, 0, len(batch))
	} else {
		work = make([]*Model, 0, len(s.items)+len(batch))
		work = append(work, s.items...)
	}
	for _, it := range batch {
		if inst, ok := it.(*Model); ok {
			if inst != nil && inst.typ.IsA(target) {
				work = append(work, inst)
			}
			continue
		}
		item, ok := asMapping(it)
		if !ok {
			continue
		}
		existing := findExisting(work, item, target)
		if d.hasRejectIf {
			rejected, err := Reject(item, d.rejectIf, owner)
			if err != nil {
				return err
			}
			if rejected {
				continue
			}
		}
		destroy := d.allowDestroy && destroyRequested(item)
		switch {
		case existing != nil && destroy:
			if existing.typ.destroyable {
				existing.destroyed = true
			} else {
				work = slices.DeleteFunc(work, func(x *Model) bool { return x == existing })
			}
		case existing != nil:
			if err := existing.Assign(item); err != nil {
				return err
			}
		case destroy:
		default:
			v, err := target.New(item)
			if err != nil {
				return err
			}
			work = append(work, v)
		}
	}
	s.items = work
	return nil
}

func destroyRequested(item map[string]any) bool {
	v, ok := destroyFlag(item)
	return ok && cast.Truthy(v)
}
