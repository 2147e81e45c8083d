package ops

// Relu returns the ReLU strategy: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
//   - ReluGrad(dY, X) -> dX
func Relu() *GradOp {
	return unary("Relu", "ReluGrad", "X", "Y")
}

// Sigmoid returns the sigmoid strategy: output = 1 / (1 + exp(-x)).
//
// Backward pass:
//   - d(sigmoid(x))/dx = sigmoid(x) * (1 - sigmoid(x))
//   - SigmoidGrad(dY, X) -> dX
func Sigmoid() *GradOp {
	return unary("Sigmoid", "SigmoidGrad", "X", "Y")
}

// Tanh returns the tanh strategy.
//
// Backward pass:
//   - d(tanh(x))/dx = 1 - tanh(x)^2
//   - TanhGrad(dY, input) -> dX
func Tanh() *GradOp {
	return unary("Tanh", "TanhGrad", "input", "output")
}

// Softmax returns the softmax strategy. The axis attribute is copied to the
// gradient node.
func Softmax() *GradOp {
	s := unary("Softmax", "SoftmaxGrad", "input", "output")
	s.Attributes = []string{"axis"}
	return s
}

// Identity returns the identity strategy: dX = dY.
func Identity() *GradOp {
	return unary("Identity", "IdentityGrad", "input", "output")
}

// Add returns the addition strategy.
//
// Backward pass:
//   - d(a+b)/da = 1, d(a+b)/db = 1
//   - gradients are reduced over broadcast dimensions by AddGrad
func Add() *GradOp {
	return binary("Add", "AddGrad", "C", "dC")
}

// Sub returns the subtraction strategy: d(a-b)/da = 1, d(a-b)/db = -1.
func Sub() *GradOp {
	return binary("Sub", "SubGrad", "C", "dC")
}

// Mul returns the multiplication strategy: d(a*b)/da = b, d(a*b)/db = a.
func Mul() *GradOp {
	return binary("Mul", "MulGrad", "C", "dC")
}

// MatMul returns the matrix multiplication strategy.
//
// Backward pass:
//   - d(A@B)/dA = grad@B^T
//   - d(A@B)/dB = A^T@grad
func MatMul() *GradOp {
	return binary("MatMul", "MatMulGrad", "Y", "dY")
}

// Builtin returns all built-in strategies in registration order.
func Builtin() []*GradOp {
	return []*GradOp{
		Relu(), Sigmoid(), Tanh(), Softmax(), Identity(),
		Add(), Sub(), Mul(), MatMul(),
	}
}

func unary(forward, grad, in, out string) *GradOp {
	return &GradOp{
		Forward:  forward,
		Grad:     grad,
		Given:    map[string]string{out: "dY"},
		Required: map[string]string{in: "dX"},
	}
}

func binary(forward, grad, out, dOut string) *GradOp {
	return &GradOp{
		Forward:  forward,
		Grad:     grad,
		Given:    map[string]string{out: dOut},
		Required: map[string]string{"A": "dA", "B": "dB"},
	}
}
