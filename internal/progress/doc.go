// Package progress carries batch progress out of the pipeline: the Event
// type and its sinks, the monitor that turns an ffmpeg -progress file into
// percentages, and an optional websocket server that fans events out to
// connected clients.
package progress
