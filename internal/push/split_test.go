package push

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawEvents(t *testing.T, n, payloadLen int) []json.RawMessage {
	t.Helper()
	events := make([]json.RawMessage, n)
	for i := range events {
		raw, err := json.Marshal(map[string]any{"seq": i, "pad": strings.Repeat("x", payloadLen)})
		require.NoError(t, err)
		events[i] = raw
	}
	return events
}

func TestSerializedSize(t *testing.T) {
	tests := []struct {
		name   string
		events []json.RawMessage
		want   int
	}{
		{"empty", nil, 2},
		{"one", []json.RawMessage{json.RawMessage(`{}`)}, 4},
		{"two", []json.RawMessage{json.RawMessage(`1`), json.RawMessage(`22`)}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SerializedSize(tt.events))

			if len(tt.events) > 0 {
				encoded, err := json.Marshal(tt.events)
				require.NoError(t, err)
				assert.Len(t, encoded, tt.want)
			}
		})
	}
}

func TestSplitBatch_UnderLimitIsOneBatch(t *testing.T) {
	events := rawEvents(t, 5, 10)
	batches := SplitBatch(events, DefaultMaxBatchSize)

	require.Len(t, batches, 1)
	assert.Equal(t, events, batches[0])
}

func TestSplitBatch_BoundsAndPreservesOrder(t *testing.T) {
	events := rawEvents(t, 100, 200)
	require.Greater(t, SerializedSize(events), DefaultMaxBatchSize)

	batches := SplitBatch(events, DefaultMaxBatchSize)
	require.GreaterOrEqual(t, len(batches), 2)

	var rejoined []json.RawMessage
	for i, b := range batches {
		assert.LessOrEqual(t, SerializedSize(b), DefaultMaxBatchSize, "batch %d too large", i)
		assert.NotEmpty(t, b)
		rejoined = append(rejoined, b...)
	}
	assert.Equal(t, events, rejoined)
}

func TestSplitBatch_ExactFit(t *testing.T) {
	a := json.RawMessage(`"aaa"`)
	b := json.RawMessage(`"bbb"`)
	// ["aaa","bbb"] is 13 bytes.
	batches := SplitBatch([]json.RawMessage{a, b}, 13)
	assert.Len(t, batches, 1)

	batches = SplitBatch([]json.RawMessage{a, b}, 12)
	assert.Len(t, batches, 2)
}

func TestSplitBatch_OversizedEventAlone(t *testing.T) {
	small := json.RawMessage(`{"n":1}`)
	huge := json.RawMessage(fmt.Sprintf(`{"pad":%q}`, strings.Repeat("y", 9000)))

	batches := SplitBatch([]json.RawMessage{small, huge, small}, DefaultMaxBatchSize)

	require.Len(t, batches, 3)
	assert.Equal(t, []json.RawMessage{small}, batches[0])
	assert.Equal(t, []json.RawMessage{huge}, batches[1])
	assert.Equal(t, []json.RawMessage{small}, batches[2])
}

func TestSplitBatch_Empty(t *testing.T) {
	assert.Nil(t, SplitBatch(nil, DefaultMaxBatchSize))
}
