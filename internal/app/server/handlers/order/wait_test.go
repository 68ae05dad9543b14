package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdorder"
	"github.com/88lin/xianyu-super-butler/internal/app/testsupport/memrepo"
)

// fakeResultWaiter 可编程的发货结果推送
type fakeResultWaiter struct {
	payload string
	err     error
}

func (f *fakeResultWaiter) WaitFulfillResult(ctx context.Context, orderID string, timeout time.Duration) (string, error) {
	return f.payload, f.err
}

func newWaitFixture(t *testing.T, waiter ResultWaiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orderRepo := memrepo.NewOrderRepo()
	accountRepo := memrepo.NewAccountRepo()
	account := &etaccount.Account{Name: "主号", Enabled: true}
	require.NoError(t, accountRepo.Create(context.Background(), account))

	order, err := etorder.NewOrder("o-1", account.ID, "XY001", "buyer-1", "item-1", "视频会员月卡")
	require.NoError(t, err)
	require.NoError(t, orderRepo.Create(context.Background(), order))

	handler := NewOrderHandler(mdorder.NewOrderModule(orderRepo, accountRepo), nil, nil, waiter)

	r := gin.New()
	r.GET("/orders/:id/result", handler.WaitResult)
	return r
}

func TestWaitResult_ReturnsPushedPayload(t *testing.T) {
	waiter := &fakeResultWaiter{payload: `{"order_id":"o-1","success":true,"detail":""}`}
	r := newWaitFixture(t, waiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/o-1/result", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestWaitResult_TimeoutFallsBackToOrderState(t *testing.T) {
	waiter := &fakeResultWaiter{err: context.DeadlineExceeded}
	r := newWaitFixture(t, waiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/o-1/result?timeout_seconds=1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"o-1"`)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)
}

func TestWaitResult_UnknownOrderAfterTimeout(t *testing.T) {
	waiter := &fakeResultWaiter{err: context.DeadlineExceeded}
	r := newWaitFixture(t, waiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/missing/result", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWaitResult_RejectsBadTimeout(t *testing.T) {
	r := newWaitFixture(t, &fakeResultWaiter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/o-1/result?timeout_seconds=zero", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
