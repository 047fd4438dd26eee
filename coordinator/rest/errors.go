package rest

import (
	"errors"
	"net/http"

	"github.com/ovey-io/ovey/coordinator"
)

// statusFor maps a Store error to the HTTP status spec.md's external
// interface names for it. Anything that isn't a *coordinator.
// CoordinatorError (a decode failure, a malformed GUID string) is treated
// as a client error too, since every failure this layer sees originates
// from request content.
func statusFor(err error) int {
	var ce *coordinator.CoordinatorError
	if !errors.As(err, &ce) {
		return http.StatusBadRequest
	}
	switch ce.Kind {
	case coordinator.KindNetworkNotFound,
		coordinator.KindDeviceNotFound,
		coordinator.KindPortNotFound,
		coordinator.KindGidNotFound,
		coordinator.KindLidNotFound,
		coordinator.KindQpNotFound:
		return http.StatusNotFound
	case coordinator.KindGidConflict,
		coordinator.KindGidReserved,
		coordinator.KindDeviceConflict:
		return http.StatusConflict
	case coordinator.KindDeviceGuidNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
