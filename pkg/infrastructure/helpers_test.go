package infrastructure

import (
	"context"
	"errors"
	"testing"
)

type recordingLogger struct {
	infoMsgs  []string
	errorMsgs []string
	fields    []map[string]interface{}
}

func (l *recordingLogger) Info(_ context.Context, msg string, fields map[string]interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
	l.fields = append(l.fields, fields)
}

func (l *recordingLogger) Debug(context.Context, string, map[string]interface{}) {}

func (l *recordingLogger) Error(_ context.Context, msg string, fields map[string]interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
	l.fields = append(l.fields, fields)
}

func (l *recordingLogger) Trace(context.Context, string, map[string]interface{}) {}

func TestLogInfoForwardsFields(t *testing.T) {
	logger := &recordingLogger{}

	LogInfo(context.Background(), logger, "event handled", map[string]interface{}{
		"event_name": "BookingCreated",
	})

	if len(logger.infoMsgs) != 1 || logger.infoMsgs[0] != "event handled" {
		t.Fatalf("info messages = %v, want [event handled]", logger.infoMsgs)
	}
	if got := logger.fields[0]["event_name"]; got != "BookingCreated" {
		t.Errorf("event_name = %v, want BookingCreated", got)
	}
}

func TestLogErrorAttachesError(t *testing.T) {
	logger := &recordingLogger{}
	cause := errors.New("broker offline")

	LogError(context.Background(), logger, "error publishing event", cause, map[string]interface{}{
		"event_name": "BookingCreated",
	})

	if len(logger.errorMsgs) != 1 {
		t.Fatalf("error messages = %v, want one entry", logger.errorMsgs)
	}
	if got := logger.fields[0]["error"]; got != cause {
		t.Errorf("error field = %v, want %v", got, cause)
	}
}
