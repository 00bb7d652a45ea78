package entity

// Binding is a named watch expression attached to a session. Its value is
// re-evaluated each time the session stops and is an observable field.
type Binding struct {
	base

	// Expression is the watched expression.
	Expression string

	// Value is the most recent evaluation result, empty before the first
	// evaluation.
	Value string

	// Err is the most recent evaluation failure message, empty on success.
	Err string
}

// Kind returns KindBinding.
func (b *Binding) Kind() Kind { return KindBinding }

// URI returns the canonical address of the binding.
func (b *Binding) URI() string { return uriFor(b) }
