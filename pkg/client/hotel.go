package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"roombook/pkg/correlation"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/retry"
)

// HotelClient is the outbound gateway to the hotel service's hold, confirm
// and release operations. All three are idempotent on the receiving side, so
// the booking saga can retry them freely; a 409 means the date range is busy
// and retrying cannot help, so it comes back marked permanent.
type HotelClient struct {
	httpClient *HttpClient
}

func NewHotelClient(baseURL string, callTimeout time.Duration) *HotelClient {
	return &HotelClient{
		httpClient: NewHttpClient(baseURL, callTimeout),
	}
}

// HoldRequest is the payload for a hold call. RequestID is the idempotency
// key shared with the booking aggregate.
type HoldRequest struct {
	RequestID string    `json:"request_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type lockResponse struct {
	Data model.RoomReservationLock `json:"data"`
}

func (c *HotelClient) Hold(ctx context.Context, roomID string, req HoldRequest, correlationID string) (*model.RoomReservationLock, error) {
	path := "/api/v1/rooms/" + url.PathEscape(roomID) + "/hold"
	resp, err := c.httpClient.POST(ctx, path, req, headers(correlationID))
	if err != nil {
		return nil, apperrors.Unavailable("hotel service", err)
	}
	if err := checkStatus(resp, "hold"); err != nil {
		return nil, err
	}

	var wrapper lockResponse
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, retry.Permanent(apperrors.Internal("could not decode hold response", err))
	}
	return &wrapper.Data, nil
}

func (c *HotelClient) Confirm(ctx context.Context, roomID, requestID, correlationID string) error {
	path := "/api/v1/rooms/" + url.PathEscape(roomID) + "/confirm"
	body := map[string]string{"request_id": requestID}
	resp, err := c.httpClient.POST(ctx, path, body, headers(correlationID))
	if err != nil {
		return apperrors.Unavailable("hotel service", err)
	}
	return checkStatus(resp, "confirm")
}

func (c *HotelClient) Release(ctx context.Context, roomID, requestID, correlationID string) error {
	path := "/api/v1/rooms/" + url.PathEscape(roomID) + "/release"
	body := map[string]string{"request_id": requestID}
	resp, err := c.httpClient.POST(ctx, path, body, headers(correlationID))
	if err != nil {
		return apperrors.Unavailable("hotel service", err)
	}
	return checkStatus(resp, "release")
}

// ListRooms fetches the room views backing popularity suggestions.
func (c *HotelClient) ListRooms(ctx context.Context) ([]model.RoomView, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/hotels/rooms", nil)
	if err != nil {
		return nil, apperrors.Unavailable("hotel service", err)
	}
	if err := checkStatus(resp, "list rooms"); err != nil {
		return nil, err
	}

	var wrapper struct {
		Data []model.RoomView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, apperrors.Internal("could not decode room list", err)
	}
	return wrapper.Data, nil
}

func headers(correlationID string) map[string]string {
	if correlationID == "" {
		return nil
	}
	return map[string]string{correlation.Header: correlationID}
}

// checkStatus maps HTTP outcomes to the saga's error taxonomy: conflicts and
// client errors are definitive, everything 5xx is transient and retryable.
func checkStatus(resp *Response, op string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return retry.Permanent(apperrors.Conflict(GetErrorMessage(resp)))
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(apperrors.NotFoundWithID("reservation target", op))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(apperrors.InvalidInput(fmt.Sprintf("%s rejected: %s", op, GetErrorMessage(resp))))
	default:
		return apperrors.Unavailable("hotel service", fmt.Errorf("%s returned status %d", op, resp.StatusCode))
	}
}
