package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/portal/internal/logger"
)

func fastOptions() ConnectOptions {
	return ConnectOptions{
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    10 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitReadyRetries(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, waitReady(context.Background(), ping, fastOptions(), logger.NewNop()))
	assert.Equal(t, 3, calls)
}

func TestWaitReadyTimeout(t *testing.T) {
	down := errors.New("connection refused")
	ping := func(context.Context) error { return down }

	err := waitReady(context.Background(), ping, fastOptions(), logger.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
}

func TestWaitReadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastOptions()
	opts.ConnectTimeout = time.Minute
	err := waitReady(ctx, func(context.Context) error { return errors.New("down") }, opts, logger.NewNop())
	assert.Error(t, err)
}

func TestConnectOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{name: "connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{name: "retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{name: "max wait", mutate: func(o *ConnectOptions) { o.MaxWait = -1 }},
		{name: "ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{name: "warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	require.NoError(t, fastOptions().validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := fastOptions()
			tt.mutate(&o)
			assert.Error(t, o.validate())
		})
	}
}
