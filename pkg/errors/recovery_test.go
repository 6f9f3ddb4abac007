package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	train := func() (err error) {
		defer Recover(&err, "Session.Train")
		panic("kernel returned garbage")
	}

	err := train()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr), "expected PanicError, got %T", err)
	assert.Equal(t, "Session.Train", panicErr.Operation)
	assert.Equal(t, "kernel returned garbage", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in Session.Train: kernel returned garbage", panicErr.Error())
}

func TestRecover_WithoutPanic(t *testing.T) {
	train := func() (err error) {
		defer Recover(&err, "Session.Train")
		return nil
	}
	assert.NoError(t, train())
}

func TestRecover_KeepsExistingError(t *testing.T) {
	original := fmt.Errorf("solver failed")

	train := func() (err error) {
		defer Recover(&err, "Session.Train")
		err = original
		panic("panic after error")
	}

	err := train()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Session.Train")
	assert.Contains(t, err.Error(), "original error")
	assert.True(t, errors.Is(err, original))
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assert.NoError(t, SafeExecute("Evaluator.Apply", func() error { return nil }))
	})

	t.Run("function error is returned as is", func(t *testing.T) {
		original := fmt.Errorf("function error")
		err := SafeExecute("Evaluator.Apply", func() error { return original })
		assert.Same(t, original, err)
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("Evaluator.Apply", func() error {
			panic(errors.New("index out of range"))
		})
		var panicErr *PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "Evaluator.Apply", panicErr.Operation)
		// error panic values stay reachable through the chain
		assert.EqualError(t, panicErr.Unwrap(), "index out of range")
	})
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("Cache.Build", "test value")

	assert.Equal(t, "panic in Cache.Build: test value", panicErr.Error())
	assert.True(t, strings.Contains(panicErr.String(), "Stack trace:"))
	assert.Nil(t, panicErr.Unwrap())
}

func TestRecover_DifferentPanicTypes(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
		expected   string
	}{
		{"string panic", "string panic", "string panic"},
		{"int panic", 42, "42"},
		{"error panic", fmt.Errorf("error as panic"), "error as panic"},
		{"struct panic", struct{ Msg string }{"struct message"}, "{struct message}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn := func() (err error) {
				defer Recover(&err, "TypeTest")
				panic(tc.panicValue)
			}

			var panicErr *PanicError
			require.True(t, errors.As(fn(), &panicErr))
			assert.Equal(t, tc.expected, fmt.Sprintf("%v", panicErr.PanicValue))
		})
	}
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
