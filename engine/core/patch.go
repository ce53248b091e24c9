package core

// Patch distinguishes "leave unchanged" from "set to value", including
// set-to-zero, which a plain pointer-optional field cannot express once
// clearing a value is a legitimate edit.
type Patch[T any] struct {
	value T
	set   bool
}

// SetTo returns a patch that sets the field to v.
func SetTo[T any](v T) Patch[T] {
	return Patch[T]{value: v, set: true}
}

// Unset returns a patch that leaves the field unchanged.
func Unset[T any]() Patch[T] {
	return Patch[T]{}
}

func (p Patch[T]) IsSet() bool {
	return p.set
}

// Value returns the patched value and whether it was set.
func (p Patch[T]) Value() (T, bool) {
	return p.value, p.set
}

// Apply overwrites dst with the patch value when set.
func (p Patch[T]) Apply(dst *T) {
	if p.set {
		*dst = p.value
	}
}

// Overlay returns q when q is set, p otherwise, so folding a sequence of
// patches keeps the newest edit per field.
func (p Patch[T]) Overlay(q Patch[T]) Patch[T] {
	if q.set {
		return q
	}
	return p
}
