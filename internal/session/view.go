package session

import (
	"strconv"
	"strings"

	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

// NavigationURL is a Waze deep link that starts navigation to p.
func NavigationURL(p geo.Point) string {
	return "https://waze.com/ul?ll=" +
		strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Lng, 'f', -1, 64) + "&navigate=yes"
}

// View renders st for the presentation layer. filter narrows the stop list
// (case-insensitive match on address, district or displayed label); path
// and metrics always describe the whole route.
func View(st *State, filter string) model.RouteView {
	m := st.Ledger.Metrics(st.Route)
	needle := strings.ToLower(strings.TrimSpace(filter))

	stops := make([]model.StopView, 0, st.Route.Len())
	for _, s := range st.Route.Stops {
		label := st.Ledger.Label(s)
		if needle != "" && !matches(needle, s.Address, s.District, label) {
			continue
		}
		stops = append(stops, model.StopView{
			UID:           s.UID,
			OrderIndex:    s.OrderIndex,
			Address:       s.Address,
			District:      s.District,
			Lat:           s.Lat,
			Lng:           s.Lng,
			Label:         label,
			Status:        st.Ledger.Status(s.UID),
			IsNext:        s.UID == m.NextUID,
			NavigationURL: NavigationURL(s.Point()),
		})
	}
	path := st.Route.Path
	if path == nil {
		path = []geo.Point{}
	}
	return model.RouteView{SessionID: st.ID, Stops: stops, Path: path, Metrics: m}
}

func matches(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
