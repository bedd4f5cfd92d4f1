package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"stoprouter/internal/errs"
	"stoprouter/internal/geo"
)

// stopNamespace scopes the name-based stop UIDs.
var stopNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("stoprouter/stop"))

// StopUID derives a stable identity from the immutable source fields. The
// occurrence number separates otherwise identical rows; the first occurrence
// is 1.
func StopUID(address, sequenceLabel string, occurrence int) string {
	name := address + "\x1f" + sequenceLabel
	if occurrence > 1 {
		name += "\x1f" + strconv.Itoa(occurrence)
	}
	return uuid.NewSHA1(stopNamespace, []byte(name)).String()
}

// StopsFromRows converts loader rows into stops. Rows missing a coordinate
// are dropped; a present but invalid coordinate fails the whole batch.
// The returned stops keep input order and have no OrderIndex yet.
func StopsFromRows(rows []StopRow) ([]Stop, error) {
	out := make([]Stop, 0, len(rows))
	seen := map[string]int{}
	for i, r := range rows {
		if r.Lat == nil || r.Lng == nil {
			continue
		}
		p := geo.Point{Lat: *r.Lat, Lng: *r.Lng}
		if err := p.Validate(); err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("rows["+strconv.Itoa(i)+"]", err)
		}
		label := strings.TrimSpace(r.SequenceLabel)
		if label == "" {
			label = DefaultSequenceLabel
		}
		addr := strings.TrimSpace(r.Address)
		key := addr + "\x1f" + label
		seen[key]++
		out = append(out, Stop{
			UID:           StopUID(addr, label, seen[key]),
			Address:       addr,
			District:      strings.TrimSpace(r.District),
			Lat:           p.Lat,
			Lng:           p.Lng,
			SequenceLabel: label,
		})
	}
	return out, nil
}
