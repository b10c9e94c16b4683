package compiler

import (
	"testing"

	"github.com/nalgeon/be"
)

const (
	testValue ID = 100
	testOther ID = 101
	testSome  ID = 10
	testNone  ID = 11
)

func only(variants ...ID) *EnumRefinement {
	r := &EnumRefinement{Variants: map[ID]map[string]Refinement{}}
	for _, v := range variants {
		r.Variants[v] = map[string]Refinement{}
	}
	return r
}

func TestMergeUnionKeepsCommonFacts(t *testing.T) {
	a := Refinements{testValue: only(testSome), testOther: only(testNone)}
	b := Refinements{testValue: only(testSome)}

	out := MergeRefinements(Union, a, b)
	vid, ok := singleVariant(out[testValue])
	be.True(t, ok)
	be.Equal(t, vid, testSome)
	_, ok = out[testOther]
	be.True(t, !ok)
}

func TestMergeUnionWidensVariants(t *testing.T) {
	a := Refinements{testValue: only(testSome)}
	b := Refinements{testValue: only(testNone)}

	out := MergeRefinements(Union, a, b)
	_, ok := singleVariant(out[testValue])
	be.True(t, !ok)
	be.Equal(t, len(out[testValue].(*EnumRefinement).Variants), 2)
}

func TestMergeIntersectionKeepsFactsFromEither(t *testing.T) {
	a := Refinements{testValue: only(testSome, testNone), testOther: only(testNone)}
	b := Refinements{testValue: only(testSome)}

	out := MergeRefinements(Intersection, a, b)
	vid, ok := singleVariant(out[testValue])
	be.True(t, ok)
	be.Equal(t, vid, testSome)
	vid, ok = singleVariant(out[testOther])
	be.True(t, ok)
	be.Equal(t, vid, testNone)
}

func TestMergeStructFields(t *testing.T) {
	a := Refinements{testValue: &StructRefinement{Fields: map[string]Refinement{"f": only(testSome)}}}
	b := Refinements{testValue: &StructRefinement{Fields: map[string]Refinement{"g": only(testNone)}}}

	union := MergeRefinements(Union, a, b)
	_, ok := union[testValue]
	be.True(t, !ok)

	both := MergeRefinements(Intersection, a, b)
	fields := both[testValue].(*StructRefinement).Fields
	be.Equal(t, len(fields), 2)
}

func TestMergeDoesNotMutateOperands(t *testing.T) {
	a := Refinements{testValue: only(testSome)}
	b := Refinements{testOther: only(testNone)}

	MergeRefinements(Intersection, a, b)
	be.Equal(t, len(a), 1)
	be.Equal(t, len(b), 1)
}

func TestWrapAndLookupThroughPath(t *testing.T) {
	inner := Reference{Value: testValue, Path: []PathStep{{Field: "inner"}}}
	deep := inner.extend(PathStep{Variant: testSome, Field: "value"})

	refs := wrapRefinement(deep, only(testNone))

	vid, ok := singleVariant(lookupRefinement(refs, deep))
	be.True(t, ok)
	be.Equal(t, vid, testNone)

	// Reaching a field through a variant proves the enclosing enum is that variant.
	vid, ok = singleVariant(lookupRefinement(refs, inner))
	be.True(t, ok)
	be.Equal(t, vid, testSome)
}

func TestForgetRefinement(t *testing.T) {
	inner := Reference{Value: testValue, Path: []PathStep{{Field: "inner"}}}
	deep := inner.extend(PathStep{Variant: testSome, Field: "value"})
	refs := wrapRefinement(deep, only(testNone))

	out := forgetRefinement(refs, deep)
	be.True(t, lookupRefinement(out, deep) == nil)
	vid, ok := singleVariant(lookupRefinement(out, inner))
	be.True(t, ok)
	be.Equal(t, vid, testSome)

	out = forgetRefinement(refs, inner)
	_, ok = out[testValue]
	be.True(t, !ok)

	// The input map is left untouched.
	_, ok = singleVariant(lookupRefinement(refs, deep))
	be.True(t, ok)
}

func TestAssignRefinementReplacesFacts(t *testing.T) {
	ref := Reference{Value: testValue}
	refs := Refinements{testValue: only(testSome), testOther: only(testNone)}

	out := assignRefinement(refs, ref, only(testNone))
	vid, ok := singleVariant(out[testValue])
	be.True(t, ok)
	be.Equal(t, vid, testNone)

	out = assignRefinement(refs, ref, nil)
	_, ok = out[testValue]
	be.True(t, !ok)
	_, ok = out[testOther]
	be.True(t, ok)
}

func TestPruneRefinements(t *testing.T) {
	refs := Refinements{testValue: only(testSome), testOther: only(testNone)}
	out := pruneRefinements(refs, map[ID]bool{testValue: true})
	be.Equal(t, len(out), 1)
	_, ok := out[testOther]
	be.True(t, ok)
}

func TestMergeOpString(t *testing.T) {
	be.Equal(t, Union.String(), "Union")
	be.Equal(t, Intersection.String(), "Intersection")
}
