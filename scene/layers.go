package scene

// Layers is a 32-bit membership mask. An object is drawn by a camera when
// the two masks share at least one bit.
type Layers uint32

// DefaultLayers holds layer 0 only.
const DefaultLayers Layers = 1

// Set replaces the mask with layer n only.
func (l *Layers) Set(n int) {
	*l = Layers(1) << uint(n)
}

func (l *Layers) Enable(n int) {
	*l |= Layers(1) << uint(n)
}

func (l *Layers) Disable(n int) {
	*l &^= Layers(1) << uint(n)
}

func (l *Layers) Toggle(n int) {
	*l ^= Layers(1) << uint(n)
}

func (l Layers) IsEnabled(n int) bool {
	return l&(Layers(1)<<uint(n)) != 0
}

// Test reports whether l and other share a layer.
func (l Layers) Test(other Layers) bool {
	return l&other != 0
}
