package client_test

import (
	"sync"
	"testing"

	"github.com/goliatone/go-taskguard/client"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	t.Run("empty store holds nothing", func(t *testing.T) {
		store := client.NewMemoryStore()

		token, ok := store.Get()
		assert.False(t, ok)
		assert.Empty(t, token)
	})

	t.Run("set then get", func(t *testing.T) {
		store := client.NewMemoryStore()
		store.Set("token-value")

		token, ok := store.Get()
		assert.True(t, ok)
		assert.Equal(t, "token-value", token)
	})

	t.Run("clear removes the token", func(t *testing.T) {
		store := client.NewMemoryStore()
		store.Set("token-value")
		store.Clear()

		_, ok := store.Get()
		assert.False(t, ok)
	})

	t.Run("safe under concurrent access", func(t *testing.T) {
		store := client.NewMemoryStore()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				store.Set("token-value")
			}()
			go func() {
				defer wg.Done()
				store.Get()
			}()
		}
		wg.Wait()
	})
}
