package integrationtests

import (
	"fmt"
	"testing"
	"time"

	"roombook/pkg/model"
	"roombook/test/common"
)

// The scenario runs two rooms and three overlapping requests end to end:
// req-a holds room 301, req-b then fails on the same dates for 301 but
// succeeds on 302, and a replay of req-a returns the original booking
// without reserving anything new.
func TestBookingScenario(t *testing.T) {
	suite := common.NewSuite(t)

	hotelID := createHotel(t, suite)
	room301 := createRoom(t, suite, hotelID, "301")
	room302 := createRoom(t, suite, hotelID, "302")

	start := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 3)

	first := createBooking(t, suite, "req-a", "user-1", room301, start, end)
	if first.Status != model.BookingStatusConfirmed {
		t.Fatalf("expected first booking confirmed, got %s", first.Status)
	}

	second := createBooking(t, suite, "req-b", "user-2", room301, start, end)
	if second.Status != model.BookingStatusCancelled {
		t.Fatalf("expected overlapping booking cancelled, got %s", second.Status)
	}

	third := createBooking(t, suite, "req-c", "user-2", room302, start, end)
	if third.Status != model.BookingStatusConfirmed {
		t.Fatalf("expected booking on free room confirmed, got %s", third.Status)
	}

	replay := createBooking(t, suite, "req-a", "user-1", room301, start, end)
	if replay.ID != first.ID {
		t.Fatalf("replayed request returned a different booking: %s vs %s", replay.ID, first.ID)
	}
	if replay.Status != model.BookingStatusConfirmed {
		t.Fatalf("replayed request changed status to %s", replay.Status)
	}

	count := confirmedCount(t, suite, room301)
	if count != 1 {
		t.Fatalf("expected exactly 1 confirmed reservation on room 301, got %d", count)
	}
}

func TestBackToBackStaysDoNotConflict(t *testing.T) {
	suite := common.NewSuite(t)

	hotelID := createHotel(t, suite)
	roomID := createRoom(t, suite, hotelID, "401")

	start := time.Now().UTC().AddDate(0, 2, 0).Truncate(24 * time.Hour)
	mid := start.AddDate(0, 0, 2)
	end := mid.AddDate(0, 0, 2)

	first := createBooking(t, suite, fmt.Sprintf("btb-1-%d", time.Now().UnixNano()), "user-1", roomID, start, mid)
	if first.Status != model.BookingStatusConfirmed {
		t.Fatalf("expected first stay confirmed, got %s", first.Status)
	}

	second := createBooking(t, suite, fmt.Sprintf("btb-2-%d", time.Now().UnixNano()), "user-2", roomID, mid, end)
	if second.Status != model.BookingStatusConfirmed {
		t.Fatalf("expected stay starting on checkout day confirmed, got %s", second.Status)
	}
}

func createHotel(t *testing.T, suite *common.Suite) string {
	t.Helper()
	resp := suite.Hotels.POST(t, "/api/v1/hotels", map[string]any{
		"name": fmt.Sprintf("Test Hotel %d", time.Now().UnixNano()),
		"city": "Lisbon",
	})
	if resp.StatusCode != 201 {
		t.Fatalf("failed to create hotel: %d %s", resp.StatusCode, string(resp.Body))
	}
	var wrapper struct {
		Data model.Hotel `json:"data"`
	}
	resp.DecodeJSON(t, &wrapper)
	return wrapper.Data.ID
}

func createRoom(t *testing.T, suite *common.Suite, hotelID, number string) string {
	t.Helper()
	resp := suite.Hotels.POST(t, "/api/v1/rooms", map[string]any{
		"hotel_id": hotelID,
		"number":   fmt.Sprintf("%s-%d", number, time.Now().UnixNano()),
		"capacity": 2,
	})
	if resp.StatusCode != 201 {
		t.Fatalf("failed to create room: %d %s", resp.StatusCode, string(resp.Body))
	}
	var wrapper struct {
		Data model.Room `json:"data"`
	}
	resp.DecodeJSON(t, &wrapper)
	return wrapper.Data.ID
}

func createBooking(t *testing.T, suite *common.Suite, requestID, userID, roomID string, start, end time.Time) *model.Booking {
	t.Helper()
	resp := suite.Bookings.POST(t, "/api/v1/bookings", map[string]any{
		"request_id": requestID,
		"user_id":    userID,
		"room_id":    roomID,
		"start_date": start,
		"end_date":   end,
	})
	if resp.StatusCode != 201 {
		t.Fatalf("failed to create booking: %d %s", resp.StatusCode, string(resp.Body))
	}
	var wrapper struct {
		Data model.Booking `json:"data"`
	}
	resp.DecodeJSON(t, &wrapper)
	return &wrapper.Data
}

func confirmedCount(t *testing.T, suite *common.Suite, roomID string) int64 {
	t.Helper()
	resp := suite.Hotels.GET(t, "/api/v1/rooms/"+roomID+"/confirmed-count")
	if resp.StatusCode != 200 {
		t.Fatalf("failed to fetch confirmed count: %d %s", resp.StatusCode, string(resp.Body))
	}
	var wrapper struct {
		Data struct {
			ConfirmedBookings int64 `json:"confirmed_bookings"`
		} `json:"data"`
	}
	resp.DecodeJSON(t, &wrapper)
	return wrapper.Data.ConfirmedBookings
}
