package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/framework"
)

func TestParseEnvelope(t *testing.T) {
	envelope, err := ParseEnvelope([]byte(`{"action_type":"order_fulfill","order_id":"o-1"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionOrderFulfill, envelope.ActionType)
	assert.Equal(t, "o-1", envelope.OrderID)
	assert.NotEmpty(t, envelope.RequestID, "缺失 request_id 时应自动生成")
}

func TestParseEnvelope_KeepsRequestID(t *testing.T) {
	envelope, err := ParseEnvelope([]byte(`{"action_type":"marketplace_event","order_id":"o-1","request_id":"req-7","status":"completed"}`))
	require.NoError(t, err)
	assert.Equal(t, "req-7", envelope.RequestID)
	assert.Equal(t, "completed", envelope.Status)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	cases := []string{
		`not json`,
		`{"order_id":"o-1"}`,
		`{"action_type":"order_fulfill"}`,
	}
	for _, data := range cases {
		_, err := ParseEnvelope([]byte(data))
		assert.Error(t, err, data)
	}
}

func msg(data string) *framework.Message {
	return &framework.Message{ID: "job-1", Queue: "order_fulfill", Data: []byte(data)}
}

func TestGetProcess_AckOnSuccess(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{
		ActionOrderFulfill: func(ctx context.Context, envelope *Envelope) error {
			return nil
		},
	})

	result := proc(context.Background(), msg(`{"action_type":"order_fulfill","order_id":"o-1"}`))
	assert.Equal(t, framework.ActionAck, result.Action)
}

func TestGetProcess_ReleaseOnRetryable(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{
		ActionOrderFulfill: func(ctx context.Context, envelope *Envelope) error {
			return fmt.Errorf("deliver: %w", errorx.ErrExternalCallFailed)
		},
	})

	result := proc(context.Background(), msg(`{"action_type":"order_fulfill","order_id":"o-1"}`))
	assert.Equal(t, framework.ActionRelease, result.Action)
	assert.Equal(t, 30*time.Second, result.RetryDelay)
}

func TestGetProcess_BuryOnPermanentFailure(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{
		ActionOrderFulfill: func(ctx context.Context, envelope *Envelope) error {
			return errorx.NonRetriable("bad order")
		},
	})

	result := proc(context.Background(), msg(`{"action_type":"order_fulfill","order_id":"o-1"}`))
	assert.Equal(t, framework.ActionBury, result.Action)
}

func TestGetProcess_BuryOnParseFailure(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{})

	result := proc(context.Background(), msg(`garbage`))
	assert.Equal(t, framework.ActionBury, result.Action)
}

func TestGetProcess_BuryOnUnknownAction(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{})

	result := proc(context.Background(), msg(`{"action_type":"time_travel","order_id":"o-1"}`))
	assert.Equal(t, framework.ActionBury, result.Action)
}

func TestGetProcess_RecoversFromPanic(t *testing.T) {
	proc := GetProcess(logger.NewNop(), map[string]Handler{
		ActionOrderFulfill: func(ctx context.Context, envelope *Envelope) error {
			panic("boom")
		},
	})

	result := proc(context.Background(), msg(`{"action_type":"order_fulfill","order_id":"o-1"}`))
	assert.Equal(t, framework.ActionBury, result.Action)
}
