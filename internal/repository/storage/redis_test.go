package storage

import (
	"context"
	"testing"
	"time"

	"github.com/dougsaus/tic-tac-vibe/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStorage(t *testing.T) {
	t.Run("Connects", func(t *testing.T) {
		ctx, st := suite.New(t)

		storage, err := NewRedisStorage(ctx, RedisOptions{Addr: st.Storage.Options().Addr})

		require.NoError(t, err)
		assert.NoError(t, storage.Connection.Ping(ctx).Err())
		assert.NoError(t, storage.Close())
	})

	t.Run("Unreachable server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := NewRedisStorage(ctx, RedisOptions{Addr: "127.0.0.1:1"})

		assert.Error(t, err)
	})
}
