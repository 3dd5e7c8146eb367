package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (s *MemoryStoreTestSuite) SetupTest() {
	s.store = NewMemoryStore(time.Minute)
	s.ctx = context.Background()
}

func (s *MemoryStoreTestSuite) TestLimitEnforced() {
	key := gofakeit.UUID()

	ok, err := s.store.Acquire(s.ctx, key, 2, time.Minute)
	s.NoError(err)
	s.True(ok)

	ok, err = s.store.Acquire(s.ctx, key, 2, time.Minute)
	s.NoError(err)
	s.True(ok)

	ok, err = s.store.Acquire(s.ctx, key, 2, time.Minute)
	s.NoError(err)
	s.False(ok, "third concurrent acquisition must be rejected")

	s.NoError(s.store.Release(s.ctx, key))

	ok, err = s.store.Acquire(s.ctx, key, 2, time.Minute)
	s.NoError(err)
	s.True(ok, "a released slot is immediately reusable")
}

func (s *MemoryStoreTestSuite) TestRejectionDoesNotMutateState() {
	key := gofakeit.UUID()

	ok, _ := s.store.Acquire(s.ctx, key, 1, time.Minute)
	s.True(ok)

	// Rejected attempts must not consume anything.
	for i := 0; i < 5; i++ {
		ok, err := s.store.Acquire(s.ctx, key, 1, time.Minute)
		s.NoError(err)
		s.False(ok)
	}

	s.NoError(s.store.Release(s.ctx, key))
	ok, _ = s.store.Acquire(s.ctx, key, 1, time.Minute)
	s.True(ok, "one release frees exactly one slot")
}

func (s *MemoryStoreTestSuite) TestKeysAreIndependent() {
	ok, _ := s.store.Acquire(s.ctx, "client-a", 1, time.Minute)
	s.True(ok)

	ok, _ = s.store.Acquire(s.ctx, "client-b", 1, time.Minute)
	s.True(ok, "another client's limit is separate")
}

func (s *MemoryStoreTestSuite) TestReleaseWithoutAcquireIsNoOp() {
	s.NoError(s.store.Release(s.ctx, "never-acquired"))
}

func (s *MemoryStoreTestSuite) TestExpiredEntryTreatedAsAbsent() {
	key := gofakeit.UUID()

	ok, _ := s.store.Acquire(s.ctx, key, 1, 10*time.Millisecond)
	s.True(ok)

	time.Sleep(25 * time.Millisecond)

	ok, err := s.store.Acquire(s.ctx, key, 1, time.Minute)
	s.NoError(err)
	s.True(ok, "an expired slot no longer counts against the limit")
}

func (s *MemoryStoreTestSuite) TestConcurrentAcquisitions() {
	const attempts = 50
	key := gofakeit.UUID()

	var wg sync.WaitGroup
	granted := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.store.Acquire(s.ctx, key, 3, time.Minute); ok {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	s.Equal(3, len(granted), "exactly limit acquisitions succeed under contention")
}
