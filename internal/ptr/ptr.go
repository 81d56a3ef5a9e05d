// Package ptr provides pointer helper functions for optional fields.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Clone returns a pointer to a copy of *p, or nil when p is nil.
// The copy is shallow.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
