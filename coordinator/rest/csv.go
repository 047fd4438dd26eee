package rest

import (
	"net/http"

	"github.com/gocarina/gocsv"
	"github.com/gorilla/mux"

	"github.com/ovey-io/ovey/idcodec"
)

// handleDumpCSV flattens every leased GID in a network into one row per
// pairing, the same gocsv.Marshal(records, w) shape the teacher's csvtool
// uses to render tcp-info snapshots to a writer.
func (s *Server) handleDumpCSV(w http.ResponseWriter, r *http.Request) {
	network := mux.Vars(r)["network"]
	devices := s.store.DumpNetwork(network)

	rows := make([]*GidRow, 0, len(devices))
	for _, d := range devices {
		deviceGuid := idcodec.GUIDU64ToString(d.RealGUID)
		for _, p := range d.Snapshot.Ports {
			for _, g := range p.Gids {
				rows = append(rows, &GidRow{
					Network:    network,
					DeviceGuid: deviceGuid,
					Port:       p.PortNum,
					Idx:        g.Idx,
					RealGid:    g.Pair.Real.String(),
					VirtualGid: g.Pair.Virt.String(),
				})
			}
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := gocsv.Marshal(rows, w); err != nil {
		writeError(w, err)
	}
}
