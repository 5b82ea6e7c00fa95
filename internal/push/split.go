package push

import "encoding/json"

// DefaultMaxBatchSize is the per-message ceiling of the channel transport,
// in bytes of serialized JSON.
const DefaultMaxBatchSize = 8000

// SerializedSize returns the length of events encoded as a JSON array.
func SerializedSize(events []json.RawMessage) int {
	if len(events) == 0 {
		return len("[]")
	}
	size := len("[]") + len(events) - 1
	for _, e := range events {
		size += len(e)
	}
	return size
}

// SplitBatch partitions events into ordered sub-batches whose JSON array
// encoding fits within maxSize. An event that alone exceeds maxSize is
// returned as a sub-batch of one; concatenating the result reproduces events.
func SplitBatch(events []json.RawMessage, maxSize int) [][]json.RawMessage {
	if len(events) == 0 {
		return nil
	}

	var (
		batches [][]json.RawMessage
		current []json.RawMessage
		size    int
	)
	for _, e := range events {
		next := len("[]") + len(e)
		if len(current) > 0 {
			next = size + len(",") + len(e)
		}

		if len(current) > 0 && next > maxSize {
			batches = append(batches, current)
			current = nil
			next = len("[]") + len(e)
		}
		current = append(current, e)
		size = next
	}
	return append(batches, current)
}
