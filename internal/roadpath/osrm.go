package roadpath

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stoprouter/internal/geo"
	"stoprouter/internal/metrics"
)

const (
	DefaultBaseURL = "http://router.project-osrm.org"
	DefaultProfile = "driving"
)

// ErrMalformedResponse is returned when a 200 response carries no usable geometry.
var ErrMalformedResponse = errors.New("malformed routing response")

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("routing service returned status %d", e.Code) }

// Client calls the OSRM route API. Coordinates go out as lon,lat and come
// back as [lon, lat]; callers only ever see geo.Point (lat, lng).
type Client struct {
	BaseURL string
	Profile string
	HTTP    *http.Client
}

// NewClient returns a Client with a per-request timeout.
func NewClient(baseURL, profile string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if profile == "" {
		profile = DefaultProfile
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Profile: profile, HTTP: &http.Client{Timeout: timeout}}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// URL builds the request URL for pts.
func (c *Client) URL(pts []geo.Point) string {
	var b strings.Builder
	b.WriteString(c.BaseURL)
	b.WriteString("/route/v1/")
	b.WriteString(c.Profile)
	b.WriteByte('/')
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p.Lng, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
	}
	b.WriteString("?overview=full&geometries=geojson")
	return b.String()
}

// Path makes one request covering all of pts.
func (c *Client) Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	start := time.Now()
	out, err := c.route(ctx, pts)
	metrics.RoutingLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RoutingRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RoutingRequests.WithLabelValues("ok").Inc()
	return out, nil
}

func (c *Client) route(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(pts), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body.Code != "" && !strings.EqualFold(body.Code, "Ok") {
		return nil, fmt.Errorf("%w: code %q", ErrMalformedResponse, body.Code)
	}
	if len(body.Routes) == 0 || len(body.Routes[0].Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: missing geometry", ErrMalformedResponse)
	}
	coords := body.Routes[0].Geometry.Coordinates
	out := make([]geo.Point, len(coords))
	for i, c := range coords {
		if len(c) < 2 || !finite(c[0]) || !finite(c[1]) {
			return nil, fmt.Errorf("%w: bad coordinate at %d", ErrMalformedResponse, i)
		}
		out[i] = geo.Point{Lat: c[1], Lng: c[0]}
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
