package graph

import "slices"

// Access is a data container node. Edges to and from it carry no connector.
type Access struct {
	data string
}

// NewAccess creates an access node for the named data container.
func NewAccess(data string) *Access {
	return &Access{data: data}
}

// Name returns the data container name.
func (a *Access) Name() string { return a.data }

// Kind returns KindAccess.
func (a *Access) Kind() Kind { return KindAccess }

// Tasklet is an opaque code node with free-form connectors.
type Tasklet struct {
	name    string
	code    string
	inputs  []string
	outputs []string
}

// NewTasklet creates a tasklet with the given connectors.
func NewTasklet(name, code string, inputs, outputs []string) *Tasklet {
	return &Tasklet{
		name:    name,
		code:    code,
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
	}
}

// Name returns the tasklet label.
func (t *Tasklet) Name() string { return t.name }

// Kind returns KindTasklet.
func (t *Tasklet) Kind() Kind { return KindTasklet }

// Code returns the tasklet body.
func (t *Tasklet) Code() string { return t.code }

// InConnectors returns the input connector names.
func (t *Tasklet) InConnectors() []string { return slices.Clone(t.inputs) }

// OutConnectors returns the output connector names.
func (t *Tasklet) OutConnectors() []string { return slices.Clone(t.outputs) }
