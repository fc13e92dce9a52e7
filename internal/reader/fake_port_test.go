package reader

import (
	"sync"
)

// fakePort hands out queued chunks one Read at a time and behaves like a
// timed-out serial read once the queue is empty.
type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	readErr error
	closed  bool
}

func newFakePort(chunks ...string) *fakePort {
	p := &fakePort{}
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
	return p
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		if p.readErr != nil {
			return 0, p.readErr
		}
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) push(chunk string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, []byte(chunk))
}

func (p *fakePort) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}
