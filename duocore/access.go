package duocore

// RaiseIRQ and RaiseFIQ set a core's pending-interrupt flags; they are
// lock-free single-word writes (spec §5, "lock-free pending-interrupt
// word per core") since CheckInterrupts only ever reads them from the
// owning core's own goroutine between instructions.
func (s *System) RaiseIRQ(id CoreID) {
	s.Cores[id].CPU.PendingIRQ = true
}

func (s *System) RaiseFIQ(id CoreID) {
	s.Cores[id].CPU.PendingFIQ = true
}

// WithPausedCore runs fn while holding the given core's hardware-state
// guard, blocking that core's stepper from starting a new batch until
// fn returns. Used by the debug bridge to read or write registers and
// memory without racing the run loop (spec §5's RW guard). Every call,
// read or write, takes the guard exclusively, so calls do not overlap.
func (s *System) WithPausedCore(id CoreID, fn func()) {
	s.hwGuard[id].Lock()
	defer s.hwGuard[id].Unlock()
	fn()
}

// Pause stops id's stepper after its current step batch, without
// tearing down the goroutine the way Stop does; Resume releases it
// again. Both are cheap atomic flips, safe to call from any goroutine.
func (s *System) Pause(id CoreID) {
	s.paused[id].Store(true)
}

func (s *System) Resume(id CoreID) {
	s.paused[id].Store(false)
}

func (s *System) IsPaused(id CoreID) bool {
	return s.paused[id].Load()
}
