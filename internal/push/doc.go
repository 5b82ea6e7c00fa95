// Package push delivers state-change events to real-time channels.
//
// Components emit events into a Batch carried by the context of the current
// unit of work (one HTTP request or MQTT message). When the unit of work
// succeeds the Fanout drains the batch and publishes it to the building's
// private-<building> channel, split into sub-batches that fit the transport's
// per-message size ceiling.
//
//	err := fanout.Run(ctx, building, func(ctx context.Context) error {
//	    return dispatcher.Dispatch(ctx, deviceID, env)
//	})
//
// Publishers are the websocket hub, the SSE server and the MQTT mirror,
// combined with Multi.
package push
