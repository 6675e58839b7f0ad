package common

import (
	"os"
	"testing"
)

// Suite holds clients for both running services. Tests calling NewSuite are
// skipped unless TEST_BOOKINGS_URL and TEST_HOTELS_URL point at live
// instances.
type Suite struct {
	Bookings *Client
	Hotels   *Client
}

func NewSuite(t *testing.T) *Suite {
	t.Helper()

	bookingsURL := os.Getenv("TEST_BOOKINGS_URL")
	hotelsURL := os.Getenv("TEST_HOTELS_URL")
	if bookingsURL == "" || hotelsURL == "" {
		t.Skip("TEST_BOOKINGS_URL and TEST_HOTELS_URL must be set for integration tests")
	}

	return &Suite{
		Bookings: NewClient(bookingsURL),
		Hotels:   NewClient(hotelsURL),
	}
}
