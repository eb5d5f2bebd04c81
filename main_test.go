package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNonFatal_LogsAndSwallowsError(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	run := nonFatal(context.Background(), log, "amqp feed", func(context.Context) error {
		return errors.New("connection reset")
	})

	assert.NoError(t, run(), "errgroup must not cancel the HTTP server")
	assert.Contains(t, buf.String(), "connection reset")
	assert.Contains(t, buf.String(), "amqp feed")
}

func TestNonFatal_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got error
	run := nonFatal(ctx, logrus.New(), "binlog watcher", func(ctx context.Context) error {
		got = ctx.Err()
		return nil
	})
	assert.NoError(t, run())
	assert.ErrorIs(t, got, context.Canceled)
}
