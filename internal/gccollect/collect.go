package gccollect

// Collect implements the full cycle from §4.6.6: unmark, mark from
// roots, decide which finalizers fire, sweep both heaps, then run the
// queued finalizers with the process lock released. The caller is
// expected to already hold the lock on entry and will still hold it on
// return — Collect only releases it for the finalizer window in between.
func (c *Collector) Collect() {
	c.collecting = true
	defer func() { c.collecting = false }()

	c.Unmark()
	c.Mark()
	pending := c.collectFinalizers()
	c.Sweep()
	c.global.ResetCounters()

	if len(pending) == 0 {
		return
	}

	if c.lock == nil {
		runFinalizers(pending)
		return
	}

	c.lock.Unlock()
	runFinalizers(pending)
	c.lock.Lock()
}
