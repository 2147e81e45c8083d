package autodiff

import "github.com/born-ml/opgraph/internal/autodiff/ops"

// RegisterDefaults registers the built-in strategies under their forward
// operator names. Strategies registered before it take precedence.
func RegisterDefaults(r *Registry) error {
	for _, s := range ops.Builtin() {
		if err := r.RegisterOp(s.Forward, s); err != nil {
			return err
		}
	}
	return nil
}
