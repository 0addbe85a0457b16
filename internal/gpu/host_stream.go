package gpu

import "sync"

type streamOp struct {
	fn      func() error
	barrier chan struct{}
}

// HostStream executes launched work on a single goroutine in issue order,
// the way a device stream does. Errors are sticky: once an operation fails,
// later operations are skipped and every Synchronize reports the failure.
type HostStream struct {
	ops  chan streamOp
	done chan struct{}

	mu     sync.Mutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newHostStream() *HostStream {
	s := &HostStream{
		ops:  make(chan streamOp, 64),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *HostStream) run() {
	defer close(s.done)
	for op := range s.ops {
		if op.barrier != nil {
			close(op.barrier)
			continue
		}
		if s.Err() != nil {
			continue
		}
		if err := op.fn(); err != nil {
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
		}
	}
}

// Launch enqueues fn and returns immediately.
func (s *HostStream) Launch(fn func() error) error {
	return s.enqueue(streamOp{fn: fn})
}

func (s *HostStream) enqueue(op streamOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamDestroyed
	}
	s.ops <- op
	return nil
}

// Err returns the sticky error without waiting.
func (s *HostStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Synchronize waits for all previously launched work.
func (s *HostStream) Synchronize() error {
	barrier := make(chan struct{})
	if err := s.enqueue(streamOp{barrier: barrier}); err != nil {
		return err
	}
	<-barrier
	return s.Err()
}

// Destroy drains outstanding work and stops the worker goroutine.
func (s *HostStream) Destroy() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamDestroyed
	}
	s.closed = true
	close(s.ops)
	s.mu.Unlock()

	<-s.done
	return nil
}
