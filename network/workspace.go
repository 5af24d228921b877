package network

// Workspace holds the transient buffers of one forward/backward call.
type Workspace struct {
	// Embedded is the accumulated input vector.
	Embedded []float32
	// Pre holds each layer's pre-activation output.
	Pre [][]float32
	// Signal holds each layer's activated output.
	Signal [][]float32
	// Delta holds each layer's error with respect to its pre-activation.
	Delta [][]float32
	// InputDelta is the error with respect to Embedded.
	InputDelta []float32
}

// NewWorkspace allocates buffers sized for n.
func NewWorkspace(n *Network) *Workspace {
	ws := &Workspace{
		Embedded:   make([]float32, n.InputDim()),
		InputDelta: make([]float32, n.InputDim()),
		Pre:        make([][]float32, n.Depth()),
		Signal:     make([][]float32, n.Depth()),
		Delta:      make([][]float32, n.Depth()),
	}
	for i, l := range n.Layers {
		ws.Pre[i] = make([]float32, l.Out)
		ws.Signal[i] = make([]float32, l.Out)
		ws.Delta[i] = make([]float32, l.Out)
	}
	return ws
}

// input returns the input vector of layer i.
func (ws *Workspace) input(i int) []float32 {
	if i == 0 {
		return ws.Embedded
	}
	return ws.Signal[i-1]
}

// Output returns the last layer's activated output (the softmax input).
func (ws *Workspace) Output() []float32 {
	return ws.Signal[len(ws.Signal)-1]
}
