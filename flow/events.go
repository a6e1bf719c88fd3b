package flow

import (
	"sync"
	"time"
)

// EventKind identifies the type of flow event.
type EventKind string

const (
	EventTaskStart       EventKind = "task_start"
	EventTaskEnd         EventKind = "task_end"
	EventSubtaskStart    EventKind = "subtask_start"
	EventSubtaskEnd      EventKind = "subtask_end"
	EventTurnAppended    EventKind = "turn_appended"
	EventToolDispatched  EventKind = "tool_dispatched"
	EventToolResult      EventKind = "tool_result"
	EventApprovalDenied  EventKind = "approval_denied"
	EventApprovalExpired EventKind = "approval_expired"
	EventRepeatDetected  EventKind = "repeat_detected"
	EventRoundLimit      EventKind = "round_limit"
	EventWarning         EventKind = "warning"
	EventError           EventKind = "error"
)

// FlowEvent is a typed event emitted by the flow controllers.
type FlowEvent struct {
	Kind      EventKind      `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	TaskID    string         `json:"task_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a
// buffered channel.
type EventEmitter struct {
	taskID string
	ch     chan FlowEvent
	closed bool
	mu     sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(taskID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		taskID: taskID,
		ch:     make(chan FlowEvent, bufferSize),
	}
}

// Emit sends an event. If the emitter is closed the event is silently
// dropped; if the channel is full the event is dropped rather than
// blocking the flow.
func (e *EventEmitter) Emit(kind EventKind, data map[string]any) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := FlowEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		TaskID:    e.taskID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan FlowEvent {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
