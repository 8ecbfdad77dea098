package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()
	c := NewMemory()
	defer c.Close()

	_, ok, err := c.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v1")))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, c.Set("k", []byte("v2")))
	got, _, _ = c.Get("k")
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCopiesValues(t *testing.T) {
	t.Parallel()
	c := NewMemory()
	buf := []byte("original")
	require.NoError(t, c.Set("k", buf))
	buf[0] = 'X'

	got, _, _ := c.Get("k")
	assert.Equal(t, []byte("original"), got, "Set must copy the value")

	got[0] = 'Y'
	again, _, _ := c.Get("k")
	assert.Equal(t, []byte("original"), again, "Get must copy the value")
}

func TestMemoryConcurrent(t *testing.T) {
	t.Parallel()
	c := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%4)
			_ = c.Set(key, []byte{byte(i)})
			_, _, _ = c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, c.Len())
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenSQLite(path)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set("row-7", []byte(`{"f":1.5}`)))
	got, ok, err := c.Get("row-7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"f":1.5}`, string(got))

	// Upsert replaces.
	require.NoError(t, c.Set("row-7", []byte(`{"f":2.0}`)))
	got, _, _ = c.Get("row-7")
	assert.JSONEq(t, `{"f":2.0}`, string(got))
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("k", []byte("v")))
	require.NoError(t, c.Close())

	c2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer c2.Close()

	got, ok, err := c2.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestIsSQLiteBusy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	t.Parallel()

	t.Run("success after retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		testErr := errors.New("some other error")
		err := retryOnBusy(func() error {
			calls++
			return testErr
		})
		if !errors.Is(err, testErr) {
			t.Errorf("expected %v, got %v", testErr, err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		})
		if err == nil {
			t.Error("expected error, got nil")
		}
		if calls != 5 {
			t.Errorf("expected 5 calls, got %d", calls)
		}
	})
}
