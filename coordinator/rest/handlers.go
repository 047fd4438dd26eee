package rest

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ovey-io/ovey/idcodec"
)

func pathUint(r *http.Request, key string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[key], 10, bitSize)
	return v, err
}

func (s *Server) handleLeaseDevice(w http.ResponseWriter, r *http.Request) {
	network := mux.Vars(r)["network"]
	var req LeaseDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	realGUID, err := idcodec.GUIDStringToU64(req.RealGuid)
	if err != nil {
		writeError(w, err)
		return
	}
	virt, err := s.store.LeaseDevice(network, realGUID, req.ParentDeviceName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, LeaseDeviceResponse{VirtualGuid: idcodec.GUIDU64ToString(virt)})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	realGUID, err := idcodec.GUIDStringToU64(vars["guid"])
	if err != nil {
		writeError(w, err)
		return
	}
	dev, err := s.store.Device(vars["network"], realGUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deviceDTO(dev))
}

func (s *Server) handleCreatePort(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	realGUID, err := idcodec.GUIDStringToU64(vars["guid"])
	if err != nil {
		writeError(w, err)
		return
	}
	port, err := pathUint(r, "port", 16)
	if err != nil {
		writeError(w, err)
		return
	}
	var req CreatePortRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.store.CreatePort(vars["network"], realGUID, uint16(port), req.PkeyTblLen, req.GidTblLen, req.CoreCapFlags, req.MaxMadSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, portDTO(p))
}

func (s *Server) handleSetPortAttr(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	realGUID, err := idcodec.GUIDStringToU64(vars["guid"])
	if err != nil {
		writeError(w, err)
		return
	}
	port, err := pathUint(r, "port", 16)
	if err != nil {
		writeError(w, err)
		return
	}
	var req SetPortAttrRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lid, err := idcodec.LIDStringToU16(req.Lid)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.store.SetPortAttr(vars["network"], realGUID, uint16(port), lid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portDTO(p))
}

func (s *Server) handleLeaseGid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	realGUID, err := idcodec.GUIDStringToU64(vars["guid"])
	if err != nil {
		writeError(w, err)
		return
	}
	port, err := pathUint(r, "port", 16)
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := pathUint(r, "idx", 32)
	if err != nil {
		writeError(w, err)
		return
	}
	var req LeaseGidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	realGid := fromGidValue(req.RealGid)
	virt, err := s.store.LeaseGid(vars["network"], realGUID, uint16(port), uint32(idx), realGid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, LeaseGidResponse{VirtualGid: toGidValue(virt)})
}

func (s *Server) handleSetGid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	realGUID, err := idcodec.GUIDStringToU64(vars["guid"])
	if err != nil {
		writeError(w, err)
		return
	}
	port, err := pathUint(r, "port", 16)
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := pathUint(r, "idx", 32)
	if err != nil {
		writeError(w, err)
		return
	}
	var req SetGidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	realGid := fromGidValue(req.RealGid)
	virtGid := fromGidValue(req.VirtualGid)
	if err := s.store.SetGid(vars["network"], realGUID, uint16(port), uint32(idx), uint32(idx), realGid, virtGid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SetGidRequest{RealGid: toGidValue(realGid), VirtualGid: toGidValue(virtGid)})
}

func (s *Server) handleCreateQp(w http.ResponseWriter, r *http.Request) {
	network := mux.Vars(r)["network"]
	var req CreateQpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	realGid := fromGidValue(req.RealGid)
	virtGid := fromGidValue(req.VirtGid)
	virtQpn, err := s.store.CreateQp(network, realGid, virtGid, req.RealQpn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateQpResponse{VirtualQpn: virtQpn})
}

func (s *Server) handleResolveQp(w http.ResponseWriter, r *http.Request) {
	network := mux.Vars(r)["network"]
	q := r.URL.Query()
	subnetPrefix, err := strconv.ParseUint(q.Get("virtual_subnet_prefix"), 10, 64)
	if err != nil {
		writeError(w, err)
		return
	}
	interfaceID, err := strconv.ParseUint(q.Get("virtual_interface_id"), 10, 64)
	if err != nil {
		writeError(w, err)
		return
	}
	virtQpn, err := strconv.ParseUint(q.Get("virtual_qpn"), 10, 32)
	if err != nil {
		writeError(w, err)
		return
	}
	virtGid := idcodec.GID{SubnetPrefix: subnetPrefix, InterfaceID: interfaceID}
	realGid, realQpn, err := s.store.ResolveQp(network, virtGid, uint32(virtQpn))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveQpResponse{RealGid: toGidValue(realGid), RealQpn: realQpn})
}
