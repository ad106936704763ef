// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Realtime fields
	FieldChannel   = "channel"
	FieldHoldMode  = "hold_mode"
	FieldFrameKind = "frame_kind"
	FieldRoute     = "route"

	// Tarpit fields
	FieldChunkSize = "chunk_size"
	FieldChunks    = "chunks"
	FieldDelay     = "delay"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldBytes    = "bytes"
	FieldDuration = "duration"
	FieldRemote   = "remote_addr"
	FieldTarget   = "target"
)
