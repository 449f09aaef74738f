package core

import "fmt"

// DtypePolicy controls dtype coercion/validation for an elementwise
// operation's operands and result.
type DtypePolicy int

const (
	// DtypePolicyAllSame requires every operand (inputs and output) to share
	// one dtype. Implicit numeric promotion happens in the operation wrappers
	// before the indexer is built; the indexer itself only validates.
	DtypePolicyAllSame DtypePolicy = iota

	// DtypePolicyInputSameOutputBool requires all inputs to share one dtype
	// and forces the output dtype to Bool.
	DtypePolicyInputSameOutputBool

	// DtypePolicyNone performs no dtype coercion. Object operands must agree
	// on byte size so raw copies stay well-formed.
	DtypePolicyNone
)

// operand is a byte-addressed view of one tensor, with strides aligned to
// the indexer's primary shape. Broadcast axes carry stride 0, so reads at
// those axes always dereference the single source element.
type operand struct {
	base     []byte
	offset   int
	itemSize int
	strides  [MaxDims]int
}

// Indexer computes the iteration shape for a set of input tensors and one
// output tensor under NumPy-style broadcasting, and resolves per-element
// byte pointers for arbitrary strides without materializing broadcast
// copies. It is transient: built immediately before a kernel dispatch,
// consumed during it, and discarded after.
type Indexer struct {
	inputs  []operand
	output  operand
	shape   Shape
	factors [MaxDims]int
	ndims   int
	n       int
}

// NewIndexer builds an indexer over inputs and output under the given dtype
// policy. All operands must reside on the same device and the output shape
// must equal the broadcast of the input shapes.
func NewIndexer(inputs []*Tensor, output *Tensor, policy DtypePolicy) (*Indexer, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("indexer requires at least one input")
	}
	device := output.Device()
	for i, in := range inputs {
		if in.Device() != device {
			return nil, fmt.Errorf("input %d is on %s but output is on %s",
				i, in.Device(), device)
		}
	}

	if err := checkDtypePolicy(inputs, output, policy); err != nil {
		return nil, err
	}

	// Inputs broadcast against each other and against the output; the output
	// itself is never stretched, so the broadcast result must equal its shape.
	shapes := make([]Shape, 0, len(inputs)+1)
	for _, in := range inputs {
		shapes = append(shapes, in.Shape())
	}
	shapes = append(shapes, output.Shape())
	primary, err := BroadcastShapes(shapes...)
	if err != nil {
		return nil, err
	}
	if !output.Shape().Equal(primary) {
		return nil, fmt.Errorf("output shape %v does not match broadcast shape %v",
			output.Shape(), primary)
	}

	ix := &Indexer{
		inputs: make([]operand, len(inputs)),
		shape:  primary,
		ndims:  len(primary),
		n:      primary.NumElements(),
	}
	for d := ix.ndims - 1; d >= 0; d-- {
		if d == ix.ndims-1 {
			ix.factors[d] = 1
		} else {
			ix.factors[d] = ix.factors[d+1] * primary[d+1]
		}
	}
	for i, in := range inputs {
		ix.inputs[i] = makeOperand(in, primary)
	}
	ix.output = makeOperand(output, primary)
	return ix, nil
}

func checkDtypePolicy(inputs []*Tensor, output *Tensor, policy DtypePolicy) error {
	switch policy {
	case DtypePolicyAllSame:
		for i, in := range inputs {
			if in.Dtype() != output.Dtype() {
				return fmt.Errorf("dtype policy ALL_SAME violated: input %d is %s, output is %s",
					i, in.Dtype(), output.Dtype())
			}
		}
	case DtypePolicyInputSameOutputBool:
		for i, in := range inputs {
			if in.Dtype() != inputs[0].Dtype() {
				return fmt.Errorf("dtype policy INPUT_SAME_OUTPUT_BOOL violated: input %d is %s, input 0 is %s",
					i, in.Dtype(), inputs[0].Dtype())
			}
		}
		if output.Dtype() != Bool {
			return fmt.Errorf("dtype policy INPUT_SAME_OUTPUT_BOOL requires a bool output, got %s",
				output.Dtype())
		}
	case DtypePolicyNone:
		for i, in := range inputs {
			if in.Dtype().IsObject() != output.Dtype().IsObject() {
				return fmt.Errorf("cannot copy between object and non-object dtypes (%s vs %s)",
					in.Dtype(), output.Dtype())
			}
			if in.Dtype().IsObject() && in.Dtype().ByteSize() != output.Dtype().ByteSize() {
				return fmt.Errorf("object byte sizes differ: input %d is %s, output is %s",
					i, in.Dtype(), output.Dtype())
			}
		}
	default:
		return fmt.Errorf("unknown dtype policy %d", policy)
	}
	return nil
}

// makeOperand right-aligns the tensor's dims to the primary shape and zeroes
// the stride of every broadcast axis.
func makeOperand(t *Tensor, primary Shape) operand {
	op := operand{
		base:     t.Buffer().Data(),
		offset:   t.ByteOffset(),
		itemSize: t.Dtype().ByteSize(),
	}
	shape := t.Shape()
	strides := t.Strides()
	lead := len(primary) - len(shape)
	for d := 0; d < len(shape); d++ {
		if shape[d] == 1 && primary[lead+d] != 1 {
			op.strides[lead+d] = 0
		} else {
			op.strides[lead+d] = strides[d]
		}
	}
	return op
}

// NumWorkloads returns the number of output elements to iterate.
func (ix *Indexer) NumWorkloads() int {
	return ix.n
}

// Shape returns the broadcast iteration shape.
func (ix *Indexer) Shape() Shape {
	return ix.shape
}

// NumInputs returns the number of input operands.
func (ix *Indexer) NumInputs() int {
	return len(ix.inputs)
}

func (ix *Indexer) resolve(op *operand, workload int) []byte {
	off := op.offset
	for d := 0; d < ix.ndims; d++ {
		idx := (workload / ix.factors[d]) % ix.shape[d]
		off += idx * op.strides[d]
	}
	return op.base[off : off+op.itemSize]
}

// InputPtr returns the byte window of input i's element for the workload.
func (ix *Indexer) InputPtr(i, workload int) []byte {
	return ix.resolve(&ix.inputs[i], workload)
}

// OutputPtr returns the byte window of the output element for the workload.
func (ix *Indexer) OutputPtr(workload int) []byte {
	return ix.resolve(&ix.output, workload)
}
