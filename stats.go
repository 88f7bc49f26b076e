package zipc

// Stats is a point-in-time snapshot of a channel's occupancy, useful for
// diagnostics and health checks. The counters are read with plain atomic
// loads and are not synchronized with each other — callers should treat
// the result as approximate.
type Stats struct {
	Head      uint32
	Tail      uint32
	Len       uint32
	QueueSize uint32
}

// Stats returns a snapshot of the channel's current occupancy.
func (c *Context) Stats() Stats {
	hdr := c.region.Header()
	head := hdr.Head.Load()
	tail := hdr.Tail.Load()
	return Stats{
		Head:      head,
		Tail:      tail,
		Len:       tail - head,
		QueueSize: c.region.QueueSize(),
	}
}
