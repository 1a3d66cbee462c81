package hir

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// evalIdentifier implements the lookup order from spec §4.5: a pre-resolved
// (depth,slot) pair from the C6 resolver pass is fastest; failing that (or
// for module-level identifiers, which C6 intentionally leaves unresolved)
// fall back to a name-based environment walk, then an implicit `this` field
// or method, then a built-in, then a registered class, then an enum, then a
// foreign package wildcard, and finally raise UnknownName.
func (e *Evaluator) evalIdentifier(id *Identifier) (value.Value, error) {
	if id.Depth >= 0 {
		return e.env.GetAtSlot(id.Depth, id.Slot), nil
	}
	if v, ok := e.env.TryGet(id.Name); ok {
		return v, nil
	}
	if this, ok := e.currentThis(); ok {
		if obj, ok2 := this.(*value.Object); ok2 {
			if v, found, err := e.lookupOnTargetWrapper(obj, id.Name); err != nil {
				return nil, err
			} else if found {
				return v, nil
			}
		}
	}
	if fn, ok := e.Host.LookupBuiltin(id.Name); ok {
		return fn, nil
	}
	if cls, ok := e.Host.LookupClass(id.Name); ok {
		return cls, nil
	}
	if en, ok := e.Host.LookupEnum(id.Name); ok {
		return en, nil
	}
	if v, ok := e.Host.ResolveForeignPackageWildcard(id.Name); ok {
		return v, nil
	}
	return nil, nerr.Newf(nerr.UnknownName, id.Location, "unknown name %q", id.Name)
}
