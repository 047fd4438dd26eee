package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ovey-io/ovey/coordinator"
	"github.com/ovey-io/ovey/metrics"
)

// Server is the coordinator's HTTP surface: a thin translation layer from
// URL path variables and JSON bodies to Store calls.
type Server struct {
	store *coordinator.Store
}

// NewRouter builds the mux.Router serving every coordinator operation, the
// same layered construction the teacher uses for its own http.ServeMux in
// main.go: build the handler graph once, hand it to http.Server elsewhere.
func NewRouter(store *coordinator.Store) *mux.Router {
	s := &Server{store: store}
	r := mux.NewRouter()

	r.HandleFunc("/network/{network}/device", s.handleLeaseDevice).Methods(http.MethodPost)
	r.HandleFunc("/network/{network}/device/{guid}", s.handleGetDevice).Methods(http.MethodGet)
	r.HandleFunc("/network/{network}/device/{guid}/port/{port}", s.handleCreatePort).Methods(http.MethodPost)
	r.HandleFunc("/network/{network}/device/{guid}/port/{port}/attr", s.handleSetPortAttr).Methods(http.MethodPut)
	r.HandleFunc("/network/{network}/device/{guid}/port/{port}/gid/{idx}", s.handleLeaseGid).Methods(http.MethodPost)
	r.HandleFunc("/network/{network}/device/{guid}/port/{port}/gid/{idx}", s.handleSetGid).Methods(http.MethodPut)
	r.HandleFunc("/network/{network}/qp", s.handleCreateQp).Methods(http.MethodPost)
	r.HandleFunc("/network/{network}/qp/resolve", s.handleResolveQp).Methods(http.MethodGet)
	r.HandleFunc("/network/{network}/dump.csv", s.handleDumpCSV).Methods(http.MethodGet)
	r.Use(metricsMiddleware)

	return r
}

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter has no way to ask a handler what it sent after the
// fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records every request the coordinator's REST API
// handles, by route template (not the raw path, which would blow up the
// metric's cardinality with one series per GUID/idx ever seen) and status.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if tmpl, err := mux.CurrentRoute(r).GetPathTemplate(); err == nil {
			route = tmpl
		}
		metrics.CoordinatorHTTPRequests.WithLabelValues(route, fmt.Sprintf("%d", rec.status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
