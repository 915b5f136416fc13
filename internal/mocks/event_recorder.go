package mocks

import "github.com/stretchr/testify/mock"

// EventRecorder is a mock session event recorder.
type EventRecorder struct {
	mock.Mock
}

func (m *EventRecorder) RecordSessionEvent(event string) {
	m.Called(event)
}
