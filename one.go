package attrs

// oneSlot reconciles a field holding at most one nested model.
type oneSlot struct {
	f     *field
	value *Model
}

func (s *oneSlot) get() any {
	if s.value == nil {
		return nil
	}
	return s.value
}

func (s *oneSlot) empty() bool { return s.value == nil }

// assign applies raw to the slot:
//
//   - nil clears the slot;
//   - a *Model of the target type replaces the current value as is;
//   - a mapping is rejected, destroys, builds a new model or merges into the
//     current one, in that order of precedence;
//   - anything else is ignored.
func (s *oneSlot) assign(owner *Model, raw any) error {
	d := s.f.nested
	if raw == nil {
		s.value = nil
		return nil
	}
	target, err := d.target.resolve()
	if err != nil {
		return err
	}
	if inst, ok := raw.(*Model); ok {
		switch {
		case inst == nil:
			s.value = nil
		case inst.typ.IsA(target):
			s.value = inst
		}
		return nil
	}
	item, ok := asMapping(raw)
	if !ok {
		return nil
	}
	if d.hasRejectIf {
		rejected, err := Reject(item, d.rejectIf, owner)
		if err != nil {
			return err
		}
		if rejected {
			return nil
		}
	}
	if d.allowDestroy && destroyRequested(item) {
		switch {
		case s.value == nil:
		case s.value.typ.destroyable:
			s.value.destroyed = true
		default:
			s.value = nil
		}
		return nil
	}
	if d.replace || s.value == nil {
		v, err := target.New(item)
		if err != nil {
			return err
		}
		s.value = v
		return nil
	}
	return s.value.Assign(item)
}
