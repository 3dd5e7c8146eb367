package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bankfeed/internal/errors"
	"bankfeed/internal/gate"
	"bankfeed/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AdmissionTestSuite struct {
	suite.Suite
	e     *echo.Echo
	store *gate.MemoryStore
	mw    echo.MiddlewareFunc
}

func TestAdmissionSuite(t *testing.T) {
	suite.Run(t, new(AdmissionTestSuite))
}

func (s *AdmissionTestSuite) SetupTest() {
	s.e = echo.New()
	s.store = gate.NewMemoryStore(time.Minute)
	s.mw = Admission(AdmissionConfig{
		Store:  s.store,
		Limit:  2,
		TTL:    time.Minute,
		Logger: logger.Nop(),
	})
}

func (s *AdmissionTestSuite) do(clientID string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/imports", nil)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)

	s.Require().NoError(s.mw(handler)(c))
	return rec
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (s *AdmissionTestSuite) TestSlotReleasedAfterHandler() {
	// Sequential requests never trip the limit because each one releases
	// its slot on completion.
	for i := 0; i < 5; i++ {
		rec := s.do("client-a", ok)
		s.Equal(http.StatusOK, rec.Code)
	}
}

func (s *AdmissionTestSuite) TestLimitExceededDuringConcurrentWork() {
	// Occupy both slots without releasing, as two in-flight requests would.
	acquired, err := s.store.Acquire(context.Background(), "client-a", 2, time.Minute)
	s.Require().NoError(err)
	s.Require().True(acquired)
	acquired, err = s.store.Acquire(context.Background(), "client-a", 2, time.Minute)
	s.Require().NoError(err)
	s.Require().True(acquired)

	rec := s.do("client-a", ok)
	s.Equal(http.StatusTooManyRequests, rec.Code)

	var resp errors.ErrorResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(string(errors.GateLimitExceeded), resp.Error.Code)
}

func (s *AdmissionTestSuite) TestOtherClientsUnaffected() {
	acquired, _ := s.store.Acquire(context.Background(), "client-a", 2, time.Minute)
	s.Require().True(acquired)
	acquired, _ = s.store.Acquire(context.Background(), "client-a", 2, time.Minute)
	s.Require().True(acquired)

	rec := s.do("client-b", ok)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AdmissionTestSuite) TestSlotReleasedEvenWhenHandlerFails() {
	failing := func(c echo.Context) error {
		return c.NoContent(http.StatusInternalServerError)
	}

	for i := 0; i < 3; i++ {
		rec := s.do("client-c", failing)
		s.Equal(http.StatusInternalServerError, rec.Code)
	}

	rec := s.do("client-c", ok)
	s.Equal(http.StatusOK, rec.Code, "failed handlers still release their slot")
}

// contextAwareStore fails any call made with an already-dead context, the
// way a SQL-backed store would.
type contextAwareStore struct {
	*gate.MemoryStore
}

func (s *contextAwareStore) Acquire(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.MemoryStore.Acquire(ctx, key, limit, ttl)
}

func (s *contextAwareStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Release(ctx, key)
}

func (s *AdmissionTestSuite) TestSlotReleasedAfterClientDisconnect() {
	store := &contextAwareStore{MemoryStore: gate.NewMemoryStore(time.Minute)}
	mw := Admission(AdmissionConfig{
		Store:  store,
		Limit:  1,
		TTL:    time.Minute,
		Logger: logger.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/v1/imports", nil).WithContext(ctx)
	req.Header.Set(ClientIDHeader, "client-gone")
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		cancel()
		return c.NoContent(http.StatusOK)
	}
	s.Require().NoError(mw(handler)(c))

	// The slot must be free again even though the request context died
	// before the release ran.
	ok, err := store.Acquire(context.Background(), "client-gone", 1, time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *AdmissionTestSuite) TestFallsBackToRemoteIP() {
	// No client header: the remote IP keys the counter.
	rec := s.do("", ok)
	s.Equal(http.StatusOK, rec.Code)
}
