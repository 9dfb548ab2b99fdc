package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxNilKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))

	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestExecutorFrom(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, ExecutorFrom(context.Background(), db))

	tx := &sql.Tx{}
	ctx := WithTx(context.Background(), tx)
	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Same(t, tx, got)
	assert.Same(t, tx, ExecutorFrom(ctx, db))
}

func TestRunInTxCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := RunInTx(ctx, nil, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}
