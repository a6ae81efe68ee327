package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio_backend/internal/feature/notification/domain/entity"
)

// mockChannel is a mock implementation of the Channel interface.
type mockChannel struct {
	mu       sync.Mutex
	sent     []entity.Envelope
	SendFunc func(env entity.Envelope) error
}

func (m *mockChannel) Send(env entity.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		if err := m.SendFunc(env); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, env)
	return nil
}

func (m *mockChannel) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	t.Run("multiple channels per user", func(t *testing.T) {
		r := NewRegistry()
		ch1 := &mockChannel{}
		ch2 := &mockChannel{}

		r.Register(1, ch1)
		r.Register(1, ch2)

		assert.Equal(t, 2, r.ConnectionCount(1))
		assert.Equal(t, []uint{1}, r.ConnectedUsers())
		assert.Len(t, r.ChannelsFor(1), 2)
	})

	t.Run("unregister removes empty user entry", func(t *testing.T) {
		r := NewRegistry()
		ch := &mockChannel{}
		r.Register(1, ch)

		r.Unregister(1, ch)

		assert.Equal(t, 0, r.ConnectionCount(1))
		assert.Empty(t, r.ConnectedUsers())
	})

	t.Run("unregister is idempotent", func(t *testing.T) {
		r := NewRegistry()
		ch := &mockChannel{}
		r.Register(1, ch)

		r.Unregister(1, ch)
		r.Unregister(1, ch)       // 2回目は何もしない
		r.Unregister(99, ch)      // 存在しないユーザー
		r.Unregister(1, &mockChannel{}) // 未登録のチャネル

		assert.Equal(t, 0, r.TotalConnections())
	})

	t.Run("snapshot is not affected by later changes", func(t *testing.T) {
		r := NewRegistry()
		ch1 := &mockChannel{}
		r.Register(1, ch1)

		snapshot := r.ChannelsFor(1)
		r.Register(1, &mockChannel{})
		r.Unregister(1, ch1)

		assert.Len(t, snapshot, 1)
	})
}

func TestRegistry_TotalConnections(t *testing.T) {
	r := NewRegistry()
	r.Register(1, &mockChannel{})
	r.Register(1, &mockChannel{})
	r.Register(2, &mockChannel{})

	assert.Equal(t, 3, r.TotalConnections())
	assert.ElementsMatch(t, []uint{1, 2}, r.ConnectedUsers())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			ch := &mockChannel{}
			r.Register(id%5, ch)
			r.ChannelsFor(id % 5)
			r.Unregister(id%5, ch)
		}(uint(i))
	}
	wg.Wait()

	assert.Equal(t, 0, r.TotalConnections())
}
