package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client talks to a Google-Routes-style computeRoutes endpoint.
// It is safe for concurrent use.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
}

func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("directions: api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://routes.googleapis.com"
	}

	return &Client{
		session: &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type wireWaypoint struct {
	Address string `json:"address"`
}

type computeRequest struct {
	Origin                wireWaypoint   `json:"origin"`
	Destination           wireWaypoint   `json:"destination"`
	Intermediates         []wireWaypoint `json:"intermediates,omitempty"`
	TravelMode            string         `json:"travelMode"`
	OptimizeWaypointOrder bool           `json:"optimizeWaypointOrder,omitempty"`
}

type wireLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type wireLocation struct {
	LatLng wireLatLng `json:"latLng"`
}

type wireLeg struct {
	StartLocation wireLocation `json:"startLocation"`
	EndLocation   wireLocation `json:"endLocation"`
}

type wireRoute struct {
	DistanceMeters                     int       `json:"distanceMeters"`
	Duration                           string    `json:"duration"`
	Legs                               []wireLeg `json:"legs"`
	OptimizedIntermediateWaypointIndex []int     `json:"optimizedIntermediateWaypointIndex,omitempty"`
}

type computeResponse struct {
	Routes []wireRoute `json:"routes"`
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("directions: status %d: %s", e.Code, e.Body)
}

// ComputeRoute issues one computeRoutes call over the ordered address list.
// Transient failures (429, 5xx, network errors) are retried with exponential
// backoff; all other failures, and an empty routes array, are fatal.
func (c *Client) ComputeRoute(ctx context.Context, addresses []string, optimize bool) (Result, error) {
	if err := validateAddresses(addresses); err != nil {
		return Result{}, err
	}

	reqBody := computeRequest{
		Origin:      wireWaypoint{Address: addresses[0]},
		Destination: wireWaypoint{Address: addresses[len(addresses)-1]},
		TravelMode:  "DRIVE",
	}
	for _, a := range addresses[1 : len(addresses)-1] {
		reqBody.Intermediates = append(reqBody.Intermediates, wireWaypoint{Address: a})
	}
	if optimize && len(reqBody.Intermediates) > 0 {
		reqBody.OptimizeWaypointOrder = true
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("directions: marshal request: %w", err)
	}

	var parsed computeResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/directions/v2:computeRoutes",
			bytes.NewReader(payload),
		)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("directions: create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("X-Goog-FieldMask", "routes.distanceMeters,routes.duration,routes.legs.startLocation,routes.legs.endLocation,routes.optimizedIntermediateWaypointIndex")

		resp, err := c.session.Do(req)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) {
				return err
			}
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(resp.Body)
			statusErr := &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
			switch resp.StatusCode {
			case 429, 500, 502, 503, 504:
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("directions: decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return Result{}, err
	}

	if len(parsed.Routes) == 0 {
		return Result{}, ErrNoRoute
	}
	route := parsed.Routes[0]

	seconds, err := parseDuration(route.Duration)
	if err != nil {
		return Result{}, err
	}

	coords := make([]LatLng, 0, len(route.Legs)+1)
	for _, leg := range route.Legs {
		coords = append(coords, LatLng{Lat: leg.StartLocation.LatLng.Latitude, Lng: leg.StartLocation.LatLng.Longitude})
	}
	if n := len(route.Legs); n > 0 {
		last := route.Legs[n-1].EndLocation.LatLng
		coords = append(coords, LatLng{Lat: last.Latitude, Lng: last.Longitude})
	}

	return Result{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: seconds,
		StopCoords:      coords,
		Order:           route.OptimizedIntermediateWaypointIndex,
	}, nil
}
