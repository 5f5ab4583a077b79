package event

import "testing"

func TestConstructorsStampTypeAndTimestamp(t *testing.T) {
	evt := NewBookingAccepted(Data{
		EventID:   "evt-1",
		BookingID: "booking-1",
		Audience:  AudienceRider,
	})

	if evt.EventName() != BookingAccepted {
		t.Errorf("EventName = %q, want %q", evt.EventName(), BookingAccepted)
	}

	data := evt.Payload()
	if data.Type != BookingAccepted {
		t.Errorf("Type = %q, want %q", data.Type, BookingAccepted)
	}
	if data.OccurredAt.IsZero() {
		t.Error("OccurredAt not stamped")
	}
}

func TestNamesCoversEveryVariant(t *testing.T) {
	names := Names()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			t.Errorf("duplicate event name %q", name)
		}
		seen[name] = true
	}

	for _, want := range []string{
		BookingCreated, BookingAccepted, BookingRejected,
		BookingCancelled, BookingCompleted, PaymentRetried, RideStatusChanged,
	} {
		if !seen[want] {
			t.Errorf("Names() missing %q", want)
		}
	}
}
