package renderer

// ProgressSink receives per-tile progress. Calls are made from a single
// goroutine, so implementations need no locking.
type ProgressSink interface {
	Advance(tileID, n int) // n more pixels of the tile are finished
	Complete(tileID int)   // the tile will report no further progress
}

type nopProgress struct{}

func (nopProgress) Advance(int, int) {}
func (nopProgress) Complete(int)     {}

type progressEvent struct {
	tileID   int
	n        int
	complete bool
}

// progressDispatcher funnels progress from concurrent tile tasks through a
// channel to one goroutine that owns the sink
type progressDispatcher struct {
	events chan progressEvent
	done   chan struct{}
}

func newProgressDispatcher(sink ProgressSink, buffer int) *progressDispatcher {
	if sink == nil {
		sink = nopProgress{}
	}

	pd := &progressDispatcher{
		events: make(chan progressEvent, buffer),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(pd.done)
		for event := range pd.events {
			if event.complete {
				sink.Complete(event.tileID)
			} else {
				sink.Advance(event.tileID, event.n)
			}
		}
	}()

	return pd
}

func (pd *progressDispatcher) Advance(tileID, n int) {
	pd.events <- progressEvent{tileID: tileID, n: n}
}

func (pd *progressDispatcher) Complete(tileID int) {
	pd.events <- progressEvent{tileID: tileID, complete: true}
}

// Close stops accepting events and waits until the sink has seen all of them
func (pd *progressDispatcher) Close() {
	close(pd.events)
	<-pd.done
}

// ProgressCounter aggregates tile progress into a whole-image total
type ProgressCounter struct {
	Total     int          // Total pixels in the image
	Done      int          // Pixels finished so far
	Completed map[int]bool // Tiles that reported completion
	OnUpdate  func(done, total int)
}

// NewProgressCounter creates a counter for an image of total pixels
func NewProgressCounter(total int, onUpdate func(done, total int)) *ProgressCounter {
	return &ProgressCounter{
		Total:     total,
		Completed: make(map[int]bool),
		OnUpdate:  onUpdate,
	}
}

func (pc *ProgressCounter) Advance(tileID, n int) {
	pc.Done += n
	if pc.OnUpdate != nil {
		pc.OnUpdate(pc.Done, pc.Total)
	}
}

func (pc *ProgressCounter) Complete(tileID int) {
	pc.Completed[tileID] = true
}

// Fraction returns the finished share of the image in [0, 1]
func (pc *ProgressCounter) Fraction() float64 {
	if pc.Total == 0 {
		return 0
	}
	return float64(pc.Done) / float64(pc.Total)
}
