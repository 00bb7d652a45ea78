package entity

// Scope is a variable scope of a frame (locals, arguments, globals, ...).
type Scope struct {
	base

	// Expensive indicates that fetching the scope's variables is costly
	// and should be deferred until actually requested.
	Expensive bool

	// Ref is the adapter's variables reference for this scope.
	Ref int
}

// Kind returns KindScope.
func (s *Scope) Kind() Kind { return KindScope }

// URI returns the canonical address of the scope.
func (s *Scope) URI() string { return uriFor(s) }

// Variable is a variable or a child of a structured variable.
type Variable struct {
	base

	// Value is the variable value rendered by the adapter.
	Value string

	// Type is the variable type name, if reported.
	Type string

	// Ref is the adapter's variables reference for child variables;
	// zero means the variable is scalar.
	Ref int
}

// Kind returns KindVariable.
func (v *Variable) Kind() Kind { return KindVariable }

// URI returns the canonical address of the variable.
func (v *Variable) URI() string { return uriFor(v) }

// HasChildren reports whether the variable has child variables.
func (v *Variable) HasChildren() bool {
	return v.Ref > 0
}
