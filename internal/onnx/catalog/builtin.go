package catalog

import (
	_ "embed"
	"sync"
)

var (
	//go:embed builtin/standard.yaml
	standardYAML []byte

	//go:embed builtin/gradients.yaml
	gradientsYAML []byte
)

// Standard returns the embedded catalog of standard operators.
var Standard = sync.OnceValues(func() (*Catalog, error) {
	return Parse(standardYAML)
})

// Gradients returns the embedded catalog of gradient operators used by
// the built-in backward strategies.
var Gradients = sync.OnceValues(func() (*Catalog, error) {
	return Parse(gradientsYAML)
})

// Builtin returns a Source over the standard and gradient catalogs.
func Builtin() Source {
	return Sources{lazy(Standard), lazy(Gradients)}
}

// lazy defers the embedded parse to the first Definitions call.
type lazy func() (*Catalog, error)

func (l lazy) Definitions() ([]Definition, error) {
	c, err := l()
	if err != nil {
		return nil, err
	}
	return c.Definitions()
}
