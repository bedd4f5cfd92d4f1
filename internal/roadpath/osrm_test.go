package roadpath

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoprouter/internal/geo"
)

func TestClientConvertsCoordinateOrder(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":10,"duration":2,"geometry":{"coordinates":[[-46.6,-23.5],[-46.65,-23.55],[-46.7,-23.6]]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	out, err := c.Path(context.Background(), []geo.Point{{Lat: -23.5, Lng: -46.6}, {Lat: -23.6, Lng: -46.7}})

	require.NoError(t, err)
	assert.Equal(t, "/route/v1/driving/-46.6,-23.5;-46.7,-23.6", gotPath)
	assert.Equal(t, "overview=full&geometries=geojson", gotQuery)
	assert.Equal(t, []geo.Point{{Lat: -23.5, Lng: -46.6}, {Lat: -23.55, Lng: -46.65}, {Lat: -23.6, Lng: -46.7}}, out)
}

func TestClientFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusServiceUnavailable, se.Code)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedResponse) },
		},
		{
			name:   "no routes",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[]}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedResponse) },
		},
		{
			name:   "missing geometry",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[{"distance":1}]}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedResponse) },
		},
		{
			name:   "error code",
			status: http.StatusOK,
			body:   `{"code":"NoRoute","routes":[]}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedResponse) },
		},
		{
			name:   "short coordinate",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[{"geometry":{"coordinates":[[1]]}}]}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedResponse) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := NewClient(srv.URL, "driving", time.Second).Path(context.Background(), []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}})

			assert.Nil(t, out)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "driving", 20*time.Millisecond).Path(context.Background(), []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}})

	assert.Error(t, err)
}

func TestClientURLTrimsBase(t *testing.T) {
	c := NewClient("http://osrm.local/", "foot", 0)
	assert.Equal(t, "http://osrm.local/route/v1/foot/2.5,1;4,3?overview=full&geometries=geojson", c.URL([]geo.Point{{Lat: 1, Lng: 2.5}, {Lat: 3, Lng: 4}}))
	assert.Equal(t, 10*time.Second, c.HTTP.Timeout)
}
