package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/internal/llm"
)

// ============================================================================
// StreamConfig Tests
// ============================================================================

func TestDefaultStreamConfig(t *testing.T) {
	config := DefaultStreamConfig()

	assert.Equal(t, 120*time.Second, config.Timeout)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, 1*time.Second, config.RetryDelay)
}

// ============================================================================
// StreamController Tests
// ============================================================================

func TestStreamController(t *testing.T) {
	t.Run("context is live until cancel", func(t *testing.T) {
		sc := NewStreamController(StreamConfig{Timeout: 5 * time.Second})

		select {
		case <-sc.Done():
			t.Fatal("context should not be done before cancel")
		default:
		}

		sc.Cancel()

		select {
		case <-sc.Done():
		case <-time.After(100 * time.Millisecond):
			t.Fatal("context should be done after cancel")
		}
		assert.ErrorIs(t, sc.Err(), context.Canceled)
	})

	t.Run("times out", func(t *testing.T) {
		sc := NewStreamController(StreamConfig{Timeout: 10 * time.Millisecond})

		select {
		case <-sc.Done():
		case <-time.After(time.Second):
			t.Fatal("context should time out")
		}
		assert.ErrorIs(t, sc.Err(), context.DeadlineExceeded)
	})
}

// ============================================================================
// StreamHandler Tests
// ============================================================================

func TestStreamHandler_Pump(t *testing.T) {
	t.Run("forwards deltas and completes on done", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())

		chunks := make(chan llm.StreamChunk, 4)
		chunks <- llm.StreamChunk{Delta: "SCENE 1: "}
		chunks <- llm.StreamChunk{Delta: "Arrival"}
		chunks <- llm.StreamChunk{Done: true, FinishReason: llm.FinishReasonStop}
		close(chunks)

		go sh.Pump(chunks)

		msg := sh.StreamToTea()()
		chunk, ok := msg.(StreamChunkMsg)
		require.True(t, ok)
		assert.Equal(t, "SCENE 1: ", chunk.Content)

		msg = sh.StreamToTea()()
		chunk, ok = msg.(StreamChunkMsg)
		require.True(t, ok)
		assert.Equal(t, "Arrival", chunk.Content)

		msg = sh.StreamToTea()()
		_, ok = msg.(StreamDoneMsg)
		assert.True(t, ok)
	})

	t.Run("surfaces chunk errors", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())

		streamErr := errors.New("connection reset")
		chunks := make(chan llm.StreamChunk, 1)
		chunks <- llm.StreamChunk{Error: streamErr}
		close(chunks)

		go sh.Pump(chunks)

		msg := sh.StreamToTea()()
		errMsg, ok := msg.(StreamErrorMsg)
		require.True(t, ok)
		assert.ErrorIs(t, errMsg.Err, streamErr)
	})

	t.Run("completes when channel closes without done chunk", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())

		chunks := make(chan llm.StreamChunk)
		close(chunks)

		go sh.Pump(chunks)

		msg := sh.StreamToTea()()
		_, ok := msg.(StreamDoneMsg)
		assert.True(t, ok)
	})

	t.Run("cancel stops the pump", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())
		sh.Cancel()

		chunks := make(chan llm.StreamChunk)
		go sh.Pump(chunks)

		msg := sh.StreamToTea()()
		errMsg, ok := msg.(StreamErrorMsg)
		require.True(t, ok)
		assert.ErrorIs(t, errMsg.Err, context.Canceled)
	})
}

// ============================================================================
// RetryableStream Tests
// ============================================================================

func TestRetryableStream(t *testing.T) {
	t.Run("retries up to the configured limit", func(t *testing.T) {
		rs := NewRetryableStream(StreamConfig{RetryAttempts: 2, RetryDelay: time.Millisecond})
		err := errors.New("transient")

		assert.True(t, rs.ShouldRetry(err))
		assert.True(t, rs.ShouldRetry(err))
		assert.False(t, rs.ShouldRetry(err))
		assert.Equal(t, 3, rs.Attempt())
	})

	t.Run("never retries nil or cancellation", func(t *testing.T) {
		rs := NewRetryableStream(StreamConfig{RetryAttempts: 3})

		assert.False(t, rs.ShouldRetry(nil))
		assert.False(t, rs.ShouldRetry(context.Canceled))
		assert.False(t, rs.ShouldRetry(context.DeadlineExceeded))
		assert.Equal(t, 0, rs.Attempt())
	})

	t.Run("never retries wrapped cancellation", func(t *testing.T) {
		rs := NewRetryableStream(StreamConfig{RetryAttempts: 3})

		assert.False(t, rs.ShouldRetry(fmt.Errorf("generation cancelled: %w", context.Canceled)))
		assert.False(t, rs.ShouldRetry(fmt.Errorf("stream: %w", context.DeadlineExceeded)))
		assert.Equal(t, 0, rs.Attempt())
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		rs := NewRetryableStream(StreamConfig{RetryAttempts: 1})
		rs.ShouldRetry(errors.New("transient"))
		rs.Reset()
		assert.Equal(t, 0, rs.Attempt())
	})
}

// ============================================================================
// GenerationModel Tests
// ============================================================================

func TestGenerationModel(t *testing.T) {
	t.Run("accumulates streamed chunks", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())
		model := NewGenerationModel("rainy-meetcute", "Two strangers meet.", sh)

		model.Update(StreamChunkMsg{Content: "SCENE 1: Arrival\n"})
		model.Update(StreamChunkMsg{Content: "TITLE: Arrival\n"})

		assert.Equal(t, "SCENE 1: Arrival\nTITLE: Arrival\n", model.Result())
	})

	t.Run("view shows a live token estimate", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())
		model := NewGenerationModel("rainy-meetcute", "Two strangers meet.", sh)

		model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		model.Update(StreamChunkMsg{Content: "SCENE 1: Arrival\n"})

		assert.Contains(t, model.View(), "~5 tokens")
	})

	t.Run("done stops streaming", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())
		model := NewGenerationModel("rainy-meetcute", "Two strangers meet.", sh)

		model.Update(StreamDoneMsg{})

		assert.False(t, model.streaming)
		assert.NoError(t, model.Err())
		assert.False(t, model.Cancelled())
	})

	t.Run("error is kept for the caller", func(t *testing.T) {
		sh := NewStreamHandler(DefaultStreamConfig())
		model := NewGenerationModel("rainy-meetcute", "Two strangers meet.", sh)

		streamErr := errors.New("rate limited")
		model.Update(StreamErrorMsg{Err: streamErr})

		assert.ErrorIs(t, model.Err(), streamErr)
	})
}
