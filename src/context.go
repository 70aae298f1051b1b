package cloudy

// Context is one frame of the display-name chain used for tracebacks.
// Each frame owns the environment its code runs in.
type Context struct {
	DisplayName string
	Parent      *Context
	ParentEntry Position // call site inside Parent
	Env         *Environment
}

// NewContext creates a frame entered from parent at entry
func NewContext(displayName string, parent *Context, entry Position, env *Environment) *Context {
	return &Context{
		DisplayName: displayName,
		Parent:      parent,
		ParentEntry: entry,
		Env:         env,
	}
}

// Depth returns the number of frames in the chain
func (c *Context) Depth() int {
	n := 0
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		n++
	}
	return n
}
