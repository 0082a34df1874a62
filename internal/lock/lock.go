// Package lock guards a document against concurrent pipeline runs.
package lock

import (
	"context"
	"sync"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// Locker acquires exclusive named locks. Acquire returns common.ErrAlreadyRunning when the
// key is held; the returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func documentKey(key string) string { return "payslips:lock:document:" + key }

// Memory is an in-process Locker for single-instance deployments and tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: map[string]struct{}{}}
}

func (m *Memory) Acquire(_ context.Context, key string) (func(), error) {
	k := documentKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[k]; ok {
		return nil, common.ErrAlreadyRunning
	}
	m.held[k] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, k)
			m.mu.Unlock()
		})
	}, nil
}
