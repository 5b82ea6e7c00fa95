package push

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	channel string
	events  []json.RawMessage
}

type recordingPublisher struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, events []json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.deliveries = append(p.deliveries, delivery{channel: channel, events: events})
	return nil
}

func TestBatch_DrainOnce(t *testing.T) {
	b := NewBatch()
	b.Add("b1", "one")
	b.Add("b1", "two")

	entries := b.Drain()
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Payload)
	assert.Equal(t, "two", entries[1].Payload)

	assert.Empty(t, b.Drain(), "second drain must be empty")
	assert.Zero(t, b.Len())
}

func TestEmit_WithoutBatchIsNoop(t *testing.T) {
	Emit(context.Background(), "b1", "lost")

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestEmit_AddsToContextBatch(t *testing.T) {
	b := NewBatch()
	ctx := NewContext(context.Background(), b)

	Emit(ctx, "b1", map[string]string{"event": "update"})

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, b.Len())
}

func TestFanout_FlushDeliversToBuildingChannel(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewFanout(pub, 0)

	b := NewBatch()
	b.Add("b1", map[string]int{"n": 1})
	b.Add("b1", map[string]int{"n": 2})

	require.NoError(t, f.Flush(context.Background(), "b1", b))

	require.Len(t, pub.deliveries, 1)
	assert.Equal(t, "private-b1", pub.deliveries[0].channel)
	assert.JSONEq(t, `{"n":1}`, string(pub.deliveries[0].events[0]))
	assert.JSONEq(t, `{"n":2}`, string(pub.deliveries[0].events[1]))
	assert.Zero(t, b.Len())
}

func TestFanout_FlushRejectsMixedBuildings(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewFanout(pub, 0)

	b := NewBatch()
	b.Add("b1", "a")
	b.Add("b2", "b")

	err := f.Flush(context.Background(), "b1", b)
	require.ErrorIs(t, err, ErrMixedBuildings)
	assert.Empty(t, pub.deliveries, "nothing may be delivered")
}

func TestFanout_FlushSplitsLargeBatch(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewFanout(pub, DefaultMaxBatchSize)

	b := NewBatch()
	for i := 0; i < 60; i++ {
		b.Add("b1", map[string]any{"seq": i, "pad": strings.Repeat("z", 300)})
	}

	require.NoError(t, f.Flush(context.Background(), "b1", b))
	require.GreaterOrEqual(t, len(pub.deliveries), 2)

	seq := 0
	for _, d := range pub.deliveries {
		assert.LessOrEqual(t, SerializedSize(d.events), DefaultMaxBatchSize)
		for _, raw := range d.events {
			var ev struct {
				Seq int `json:"seq"`
			}
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, seq, ev.Seq)
			seq++
		}
	}
	assert.Equal(t, 60, seq)
}

func TestFanout_FlushReturnsDeliveryError(t *testing.T) {
	boom := errors.New("transport down")
	f := NewFanout(&recordingPublisher{err: boom}, 0)

	b := NewBatch()
	b.Add("b1", "x")

	assert.ErrorIs(t, f.Flush(context.Background(), "b1", b), boom)
}

func TestFanout_FlushEmptyBatch(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewFanout(pub, 0)

	require.NoError(t, f.Flush(context.Background(), "b1", NewBatch()))
	assert.Empty(t, pub.deliveries)
}

func TestFanout_Run(t *testing.T) {
	t.Run("flushes on success", func(t *testing.T) {
		pub := &recordingPublisher{}
		f := NewFanout(pub, 0)

		err := f.Run(context.Background(), "b1", func(ctx context.Context) error {
			Emit(ctx, "b1", "done")
			return nil
		})
		require.NoError(t, err)
		require.Len(t, pub.deliveries, 1)
	})

	t.Run("discards on failure", func(t *testing.T) {
		pub := &recordingPublisher{}
		f := NewFanout(pub, 0)
		boom := errors.New("handler failed")

		err := f.Run(context.Background(), "b1", func(ctx context.Context) error {
			Emit(ctx, "b1", "partial")
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Empty(t, pub.deliveries)
	})

	t.Run("batches do not leak between units", func(t *testing.T) {
		pub := &recordingPublisher{}
		f := NewFanout(pub, 0)

		for i := 0; i < 2; i++ {
			require.NoError(t, f.Run(context.Background(), "b1", func(ctx context.Context) error {
				Emit(ctx, "b1", i)
				return nil
			}))
		}
		require.Len(t, pub.deliveries, 2)
		assert.Len(t, pub.deliveries[0].events, 1)
		assert.Len(t, pub.deliveries[1].events, 1)
	})
}

func TestMulti_PublishesToAll(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("down")}
	other := &recordingPublisher{}

	err := Multi{ok, failing, other}.Publish(context.Background(), "private-b1", []json.RawMessage{json.RawMessage(`1`)})
	require.Error(t, err)
	assert.Len(t, ok.deliveries, 1)
	assert.Len(t, other.deliveries, 1)
}
