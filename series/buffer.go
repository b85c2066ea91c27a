package series

// Buffer is an append-only series truncated to the most recent limit points,
// with a label per point. Storage grows to twice the limit before the window is
// compacted to the front, so appends cost amortised constant time.
type Buffer struct {
	limit  int
	values []float64 // window is the last min(len, limit) entries
	labels []string
}

// NewBuffer returns a Buffer holding at most limit points. A limit below 1
// holds a single point.
func NewBuffer(limit int) *Buffer {
	if limit < 1 {
		limit = 1
	}
	return &Buffer{limit: limit}
}

// Append adds a point, dropping the oldest one when the buffer is full.
func (b *Buffer) Append(value float64, label string) {
	if len(b.values) >= 2*b.limit {
		b.compact()
	}
	b.values = append(b.values, value)
	b.labels = append(b.labels, label)
}

// compact moves the window to the front of the storage.
func (b *Buffer) compact() {
	start := len(b.values) - b.limit
	n := copy(b.values, b.values[start:])
	copy(b.labels, b.labels[start:])
	clear(b.labels[n:])
	b.values = b.values[:n]
	b.labels = b.labels[:n]
}

func (b *Buffer) window() ([]float64, []string) {
	start := max(len(b.values)-b.limit, 0)
	return b.values[start:], b.labels[start:]
}

// Len returns the number of points held.
func (b *Buffer) Len() int {
	return min(len(b.values), b.limit)
}

// Limit returns the maximum number of points held.
func (b *Buffer) Limit() int {
	return b.limit
}

// Values returns a copy of the raw values.
func (b *Buffer) Values() []float64 {
	values, _ := b.window()
	return append([]float64(nil), values...)
}

// Labels returns a copy of the raw labels.
func (b *Buffer) Labels() []string {
	_, labels := b.window()
	return append([]string(nil), labels...)
}

// Reduce returns the buffer reduced to at most k points for rendering.
func (b *Buffer) Reduce(k int) ([]float64, []string) {
	values, labels := b.window()
	return ReducePaired(values, labels, k)
}

// Reset discards all points.
func (b *Buffer) Reset() {
	b.values = nil
	b.labels = nil
}
