// Released under an MIT license. See LICENSE.

package value

// List is a mutable, homogenous sequence of values. Every element's
// variant equals the list's tag; a literal takes its first element's
// variant as its tag, and an empty literal stays Untyped. Lists are
// shared by reference: mutation
// through one alias is visible through all.
type List struct {
	elements []T
	tag      Kind
}

// NewList creates a list with the given elements and element tag.
// Callers are trusted to pass elements that match the tag.
func NewList(elements []T, tag Kind) *List {
	return &List{elements: elements, tag: tag}
}

// EmptyList creates a list with no elements and the Untyped tag.
func EmptyList() *List {
	return &List{tag: Untyped}
}

// At returns the element at the 1-based position i.
func (l *List) At(i int) T {
	return l.elements[i-1]
}

// Elements returns the list's backing slice.
func (l *List) Elements() []T {
	return l.elements
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.elements)
}

// SetAt replaces the element at the 1-based position i.
func (l *List) SetAt(i int, v T) {
	l.elements[i-1] = v
}

// Tag returns the variant every element must have, or Untyped.
func (l *List) Tag() Kind {
	return l.tag
}

// Copy returns a deep copy of the list: nested lists are cloned
// recursively, scalars are copied, and callables stay shared.
func (l *List) Copy() *List {
	elements := make([]T, len(l.elements))

	for i, e := range l.elements {
		if e.IsList() {
			elements[i] = FromList(e.List().Copy())
		} else {
			elements[i] = e
		}
	}

	return &List{elements: elements, tag: l.tag}
}
