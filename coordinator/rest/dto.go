// Package rest exposes the coordinator's Store over HTTP: one handler per
// virtualization operation, plus a CSV diagnostic dump. URL shape follows
// original_source/ovey_coordinator/src/urls/mod.rs's "/network/{network}/
// device" convention, generalized to the richer port/gid/qp surface
// SPEC_FULL.md adds. GIDs travel over JSON as their two numeric halves
// (subnet_prefix, interface_id), the same shape liboveyutil::types::Gid
// serializes as over serde — the colon-grouped %01x-per-byte textual form
// idcodec.GID.String produces is display-only and not unambiguous to parse
// back, so it never appears in a JSON request or response body; only the
// CSV diagnostic dump prints it.
package rest

import (
	"time"

	"github.com/ovey-io/ovey/coordinator"
	"github.com/ovey-io/ovey/idcodec"
)

func lidString(lid uint16) string { return idcodec.LIDU16ToString(lid) }

// GidValue is a GID's wire representation: its two host-order 64-bit
// halves, exactly as liboveyutil::types::Gid derives Serialize/Deserialize.
type GidValue struct {
	SubnetPrefix uint64 `json:"subnet_prefix"`
	InterfaceID  uint64 `json:"interface_id"`
}

func toGidValue(g idcodec.GID) GidValue {
	return GidValue{SubnetPrefix: g.SubnetPrefix, InterfaceID: g.InterfaceID}
}

func fromGidValue(v GidValue) idcodec.GID {
	return idcodec.GID{SubnetPrefix: v.SubnetPrefix, InterfaceID: v.InterfaceID}
}

// LeaseDeviceRequest is the body of POST /network/{network}/device.
type LeaseDeviceRequest struct {
	RealGuid         string `json:"real_device_guid_string"`
	ParentDeviceName string `json:"parent_device_name"`
}

// LeaseDeviceResponse is the body of a successful LeaseDevice reply.
type LeaseDeviceResponse struct {
	VirtualGuid string `json:"virtual_device_guid_string"`
}

// DeviceDTO mirrors original_source's VirtualizedDeviceDTO shape, extended
// with the ports this module's richer model tracks.
type DeviceDTO struct {
	VirtualGuid  string    `json:"virtual_device_guid_string"`
	RealGuid     string    `json:"real_device_guid_string"`
	ParentDevice string    `json:"parent_device_name"`
	Ports        []PortDTO `json:"ports"`
	Lease        time.Time `json:"lease"`
}

// PortDTO is one virtualized port's current state.
type PortDTO struct {
	ID           uint32   `json:"id"`
	Port         uint16   `json:"port"`
	PkeyTblLen   uint32   `json:"pkey_tbl_len"`
	GidTblLen    uint32   `json:"gid_tbl_len"`
	CoreCapFlags uint32   `json:"core_cap_flags"`
	MaxMadSize   uint32   `json:"max_mad_size"`
	Lid          string   `json:"lid,omitempty"`
	Gids         []GidDTO `json:"gids"`
}

// GidDTO is one leased GID pairing.
type GidDTO struct {
	Idx     uint32   `json:"idx"`
	RealGid GidValue `json:"real_gid"`
	VirtGid GidValue `json:"virtual_gid"`
}

func deviceDTO(d coordinator.DeviceSnapshot) DeviceDTO {
	ports := make([]PortDTO, len(d.Ports))
	for i, p := range d.Ports {
		ports[i] = portDTO(p)
	}
	return DeviceDTO{
		VirtualGuid:  d.GUID.Virt,
		RealGuid:     d.GUID.Real,
		ParentDevice: d.ParentName,
		Ports:        ports,
		Lease:        d.Lease,
	}
}

func portDTO(p coordinator.PortSnapshot) PortDTO {
	gids := make([]GidDTO, len(p.Gids))
	for i, g := range p.Gids {
		gids[i] = GidDTO{Idx: g.Idx, RealGid: toGidValue(g.Pair.Real), VirtGid: toGidValue(g.Pair.Virt)}
	}
	var lid string
	if p.Lid != nil {
		lid = lidString(*p.Lid)
	}
	return PortDTO{
		ID:           p.ID,
		Port:         p.PortNum,
		PkeyTblLen:   p.PkeyTblLen,
		GidTblLen:    p.GidTblLen,
		CoreCapFlags: p.CoreCapFlags,
		MaxMadSize:   p.MaxMadSize,
		Lid:          lid,
		Gids:         gids,
	}
}

// CreatePortRequest is the body of POST .../port/{port}.
type CreatePortRequest struct {
	PkeyTblLen   uint32 `json:"pkey_tbl_len"`
	GidTblLen    uint32 `json:"gid_tbl_len"`
	CoreCapFlags uint32 `json:"core_cap_flags"`
	MaxMadSize   uint32 `json:"max_mad_size"`
}

// SetPortAttrRequest is the body of PUT .../port/{port}/attr.
type SetPortAttrRequest struct {
	Lid string `json:"lid"`
}

// LeaseGidRequest is the body of POST .../port/{port}/gid/{idx}.
type LeaseGidRequest struct {
	RealGid GidValue `json:"real_gid"`
}

// LeaseGidResponse is the body of a successful LeaseGid reply.
type LeaseGidResponse struct {
	VirtualGid GidValue `json:"virtual_gid"`
}

// SetGidRequest is the body of PUT .../port/{port}/gid/{idx}.
type SetGidRequest struct {
	RealGid    GidValue `json:"real_gid"`
	VirtualGid GidValue `json:"virtual_gid"`
}

// CreateQpRequest is the body of POST /network/{network}/qp.
type CreateQpRequest struct {
	RealGid GidValue `json:"real_gid"`
	VirtGid GidValue `json:"virtual_gid"`
	RealQpn uint32   `json:"real_qpn"`
}

// CreateQpResponse is the body of a successful CreateQp reply.
type CreateQpResponse struct {
	VirtualQpn uint32 `json:"virtual_qpn"`
}

// ResolveQpResponse is the body of a successful ResolveQp reply.
type ResolveQpResponse struct {
	RealGid GidValue `json:"real_gid"`
	RealQpn uint32   `json:"real_qpn"`
}

// ErrorResponse is the single JSON error shape every non-2xx response uses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GidRow is one flattened row of the CSV diagnostic dump, grounded on the
// teacher's gocarina/gocsv-tagged row structs (see cache/cache.go in the
// original tcp-info tree).
type GidRow struct {
	Network    string `csv:"network"`
	DeviceGuid string `csv:"device_guid"`
	Port       uint16 `csv:"port"`
	Idx        uint32 `csv:"idx"`
	RealGid    string `csv:"real_gid"`
	VirtualGid string `csv:"virtual_gid"`
}
