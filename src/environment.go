package cloudy

import "sort"

// Environment maps names to values and chains to the scope it was created in
type Environment struct {
	vars   map[string]Value
	parent *Environment
}

// NewEnvironment creates an empty scope under parent (nil for globals)
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		vars:   make(map[string]Value),
		parent: parent,
	}
}

// Parent returns the enclosing scope
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Get looks a name up locally, then through the parent chain
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this scope only; outer bindings are shadowed, never modified
func (e *Environment) Set(name string, value Value) {
	e.vars[name] = value
}

// Remove deletes a local binding and reports whether it existed
func (e *Environment) Remove(name string) bool {
	if _, ok := e.vars[name]; !ok {
		return false
	}
	delete(e.vars, name)
	return true
}

// Names returns the local names in sorted order
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
