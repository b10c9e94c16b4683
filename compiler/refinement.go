package compiler

import "maps"

// Refinement is what is known about the shape of a value: either
// *StructRefinement or *EnumRefinement. Refinements are immutable once
// built; every operation below returns new values.
type Refinement interface {
	refinement()
}

// StructRefinement holds facts about some fields of a struct.
type StructRefinement struct {
	Fields map[string]Refinement
}

// EnumRefinement restricts an enum value to the listed variants, with facts
// about the fields of each.
type EnumRefinement struct {
	Variants map[ID]map[string]Refinement
}

func (*StructRefinement) refinement() {}
func (*EnumRefinement) refinement()   {}

// Refinements maps value IDs to what is known about them.
type Refinements map[ID]Refinement

// MergeOp selects how two refinement maps are combined at a join.
type MergeOp int

const (
	// Union describes a value reached from either operand: only facts proven
	// in both survive.
	Union MergeOp = iota
	// Intersection describes a value for which both operands hold: facts
	// from either survive.
	Intersection
)

func (op MergeOp) String() string {
	if op == Union {
		return "Union"
	}
	return "Intersection"
}

// MergeRefinements combines two refinement maps.
func MergeRefinements(op MergeOp, a, b Refinements) Refinements {
	out := Refinements{}
	for id, ra := range a {
		rb, ok := b[id]
		if !ok {
			if op == Intersection {
				out[id] = ra
			}
			continue
		}
		if r := mergeRefinement(op, ra, rb); r != nil {
			out[id] = r
		}
	}
	if op == Intersection {
		for id, rb := range b {
			if _, ok := a[id]; !ok {
				out[id] = rb
			}
		}
	}
	return out
}

// mergeRefinement returns nil when nothing is known about the result.
func mergeRefinement(op MergeOp, a, b Refinement) Refinement {
	switch a := a.(type) {
	case *StructRefinement:
		b, ok := b.(*StructRefinement)
		if !ok {
			return nil
		}
		fields := mergeFields(op, a.Fields, b.Fields)
		if len(fields) == 0 {
			return nil
		}
		return &StructRefinement{Fields: fields}

	case *EnumRefinement:
		b, ok := b.(*EnumRefinement)
		if !ok {
			return nil
		}
		variants := map[ID]map[string]Refinement{}
		for vid, fa := range a.Variants {
			fb, ok := b.Variants[vid]
			switch {
			case ok:
				variants[vid] = mergeFields(op, fa, fb)
			case op == Union:
				variants[vid] = fa
			}
		}
		if op == Union {
			for vid, fb := range b.Variants {
				if _, ok := a.Variants[vid]; !ok {
					variants[vid] = fb
				}
			}
		}
		return &EnumRefinement{Variants: variants}
	}
	return nil
}

func mergeFields(op MergeOp, a, b map[string]Refinement) map[string]Refinement {
	out := map[string]Refinement{}
	for name, ra := range a {
		rb, ok := b[name]
		if !ok {
			if op == Intersection {
				out[name] = ra
			}
			continue
		}
		if r := mergeRefinement(op, ra, rb); r != nil {
			out[name] = r
		}
	}
	if op == Intersection {
		for name, rb := range b {
			if _, ok := a[name]; !ok {
				out[name] = rb
			}
		}
	}
	return out
}

// wrapRefinement turns a fact about the value at ref into a refinement map,
// wrapping it bottom-up through every struct and enum along the path.
func wrapRefinement(ref Reference, leaf Refinement) Refinements {
	r := leaf
	for i := len(ref.Path) - 1; i >= 0; i-- {
		step := ref.Path[i]
		fields := map[string]Refinement{step.Field: r}
		if step.Variant != NoID {
			r = &EnumRefinement{Variants: map[ID]map[string]Refinement{step.Variant: fields}}
		} else {
			r = &StructRefinement{Fields: fields}
		}
	}
	return Refinements{ref.Value: r}
}

// lookupRefinement returns what is known about the value at ref, or nil.
func lookupRefinement(refs Refinements, ref Reference) Refinement {
	r := refs[ref.Value]
	for _, step := range ref.Path {
		r = childRefinement(r, step)
	}
	return r
}

func childRefinement(r Refinement, step PathStep) Refinement {
	switch r := r.(type) {
	case *StructRefinement:
		if step.Variant == NoID {
			return r.Fields[step.Field]
		}
	case *EnumRefinement:
		if step.Variant != NoID {
			return r.Variants[step.Variant][step.Field]
		}
	}
	return nil
}

// forgetRefinement drops every fact about the value at ref and below it,
// for when that value is overwritten. Facts about enclosing values survive.
func forgetRefinement(refs Refinements, ref Reference) Refinements {
	out := maps.Clone(refs)
	if out == nil {
		out = Refinements{}
	}
	if len(ref.Path) == 0 {
		delete(out, ref.Value)
		return out
	}
	root, ok := refs[ref.Value]
	if !ok {
		return out
	}
	if r := forgetBelow(root, ref.Path); r != nil {
		out[ref.Value] = r
	} else {
		delete(out, ref.Value)
	}
	return out
}

func forgetBelow(r Refinement, path []PathStep) Refinement {
	step := path[0]
	replace := func(fields map[string]Refinement) map[string]Refinement {
		fields = maps.Clone(fields)
		if len(path) == 1 {
			delete(fields, step.Field)
			return fields
		}
		child, ok := fields[step.Field]
		if !ok {
			return fields
		}
		if c := forgetBelow(child, path[1:]); c != nil {
			fields[step.Field] = c
		} else {
			delete(fields, step.Field)
		}
		return fields
	}

	switch r := r.(type) {
	case *StructRefinement:
		if step.Variant != NoID {
			return r
		}
		fields := replace(r.Fields)
		if len(fields) == 0 {
			return nil
		}
		return &StructRefinement{Fields: fields}
	case *EnumRefinement:
		fields, ok := r.Variants[step.Variant]
		if !ok {
			return r
		}
		variants := maps.Clone(r.Variants)
		variants[step.Variant] = replace(fields)
		return &EnumRefinement{Variants: variants}
	}
	return r
}

// assignRefinement records that the value at ref now has the shape value,
// which may be nil when nothing is known about it.
func assignRefinement(refs Refinements, ref Reference, value Refinement) Refinements {
	refs = forgetRefinement(refs, ref)
	if value == nil {
		return refs
	}
	return MergeRefinements(Intersection, refs, wrapRefinement(ref, value))
}

// singleVariant returns the only variant r allows.
func singleVariant(r Refinement) (ID, bool) {
	er, ok := r.(*EnumRefinement)
	if !ok || len(er.Variants) != 1 {
		return NoID, false
	}
	for vid := range er.Variants {
		return vid, true
	}
	return NoID, false
}

// pruneRefinements drops every fact about the given values.
func pruneRefinements(refs Refinements, ids map[ID]bool) Refinements {
	out := Refinements{}
	for id, r := range refs {
		if !ids[id] {
			out[id] = r
		}
	}
	return out
}
