package dashboard

import "time"

// HistorySize is the number of CPU samples kept for the load chart
const HistorySize = 20

// HistoryLabelLayout formats the wall-clock label of a sample
const HistoryLabelLayout = "15:04:05"

// HistoryPoint is one CPU load sample
type HistoryPoint struct {
	Time string    `json:"time"`
	Load float64   `json:"load"`
	At   time.Time `json:"-"`
}

// History is a fixed-size ring of samples. It is not safe for concurrent use;
// the controller guards it with its own lock.
type History struct {
	data  []HistoryPoint
	head  int
	count int
}

// NewHistory creates a ring holding at most size samples
func NewHistory(size int) *History {
	if size <= 0 {
		size = HistorySize
	}
	return &History{data: make([]HistoryPoint, size)}
}

// Push appends a sample, evicting the oldest when full
func (h *History) Push(p HistoryPoint) {
	h.data[h.head] = p
	h.head = (h.head + 1) % len(h.data)
	if h.count < len(h.data) {
		h.count++
	}
}

// Points returns the samples oldest first
func (h *History) Points() []HistoryPoint {
	points := make([]HistoryPoint, h.count)
	start := (h.head - h.count + len(h.data)) % len(h.data)
	for i := 0; i < h.count; i++ {
		points[i] = h.data[(start+i)%len(h.data)]
	}
	return points
}
