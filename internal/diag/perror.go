package diag

import "sync"

// Collector gathers diagnostics produced by many worker goroutines into one
// ordered slice. Ported from the teacher's own channel-based perror, adapted
// to carry *Diagnostic instead of bare error and to expose a Sink-shaped API
// so driver code can treat a Collector and a plain Sink interchangeably at
// the end of a parallel stage.
type Collector struct {
	mu   sync.Mutex
	buf  []*Diagnostic
	in   chan *Diagnostic
	done chan struct{}
	wg   sync.WaitGroup
}

// NewCollector starts a collector with room for n pending diagnostics before
// a sender blocks, mirroring NewPerror(n)'s buffered channel sizing.
func NewCollector(n int) *Collector {
	if n < 1 {
		n = 1
	}
	c := &Collector{
		in:   make(chan *Diagnostic, n),
		done: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Collector) run() {
	defer c.wg.Done()
	for {
		select {
		case d, ok := <-c.in:
			if !ok {
				return
			}
			c.mu.Lock()
			c.buf = append(c.buf, d)
			c.mu.Unlock()
		case <-c.done:
			// Drain anything already queued before exiting.
			for {
				select {
				case d, ok := <-c.in:
					if !ok {
						return
					}
					c.mu.Lock()
					c.buf = append(c.buf, d)
					c.mu.Unlock()
				default:
					return
				}
			}
		}
	}
}

// Append queues a diagnostic from any worker goroutine. Safe for concurrent
// use by many callers, same contract as perror.Append.
func (c *Collector) Append(d *Diagnostic) {
	if d == nil {
		return
	}
	c.in <- d
}

// Stop closes the collector and waits for the background goroutine to drain,
// mirroring perror.Stop.
func (c *Collector) Stop() {
	close(c.in)
	c.wg.Wait()
}

// Len returns the number of diagnostics collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Sink drains the collector into a fresh *Sink. Call after Stop.
func (c *Collector) Sink() *Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := NewSink()
	for _, d := range c.buf {
		s.Add(d)
	}
	return s
}
