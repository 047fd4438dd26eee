package kreq

import "github.com/ovey-io/ovey/idcodec"

// LeaseDeviceQuery asks the daemon to map a real device GUID to its virtual
// counterpart within Network, creating the mapping on first use.
type LeaseDeviceQuery struct {
	GUID uint64
}

func (LeaseDeviceQuery) cmd() Cmd { return CmdLeaseDevice }

// LeaseDeviceReply carries back the virtual GUID the coordinator assigned.
type LeaseDeviceReply struct {
	GUID uint64
}

func (LeaseDeviceReply) cmd() Cmd { return CmdLeaseDevice }

// LeaseGidQuery asks for the virtual GID at table index Idx on Port to be
// resolved (and created on first use).
type LeaseGidQuery struct {
	Idx uint32
	Gid idcodec.GID
}

func (LeaseGidQuery) cmd() Cmd { return CmdLeaseGid }

// LeaseGidReply carries back the coordinator's resolved GID for Idx.
type LeaseGidReply struct {
	Idx uint32
	Gid idcodec.GID
}

func (LeaseGidReply) cmd() Cmd { return CmdLeaseGid }

// ResolveQpGidQuery asks which real queue pair a virtual GID and QPN
// correspond to, with no Device/Port context: the coordinator searches the
// whole network.
type ResolveQpGidQuery struct {
	Gid idcodec.GID
	QPN uint32
}

func (ResolveQpGidQuery) cmd() Cmd { return CmdResolveQpGid }

// ResolveQpGidReply carries back the real GID and QPN the virtual pair
// resolves to.
type ResolveQpGidReply struct {
	Gid idcodec.GID
	QPN uint32
}

func (ResolveQpGidReply) cmd() Cmd { return CmdResolveQpGid }

// SetGidQuery tells the coordinator to pair a real and virtual GID
// explicitly, rather than leasing one. The daemon sends RealIdx as the
// pairing's table index; VirtIdx is not sent to the coordinator.
type SetGidQuery struct {
	RealIdx uint32
	VirtIdx uint32
	Real    idcodec.GID
	Virt    idcodec.GID
}

func (SetGidQuery) cmd() Cmd { return CmdSetGid }

// SetGidReply echoes the query's indices and GIDs once the coordinator has
// recorded the pairing.
type SetGidReply struct {
	RealIdx uint32
	VirtIdx uint32
	Real    idcodec.GID
	Virt    idcodec.GID
}

func (SetGidReply) cmd() Cmd { return CmdSetGid }

// CreatePortQuery registers a virtual port's capability attributes ahead of
// any GID being leased on it.
type CreatePortQuery struct {
	Port         uint16
	PkeyTblLen   uint32
	GidTblLen    uint32
	CoreCapFlags uint32
	MaxMadSize   uint32
}

func (CreatePortQuery) cmd() Cmd { return CmdCreatePort }

// CreatePortReply echoes the attributes the coordinator stored.
type CreatePortReply struct {
	Port         uint16
	PkeyTblLen   uint32
	GidTblLen    uint32
	CoreCapFlags uint32
	MaxMadSize   uint32
}

func (CreatePortReply) cmd() Cmd { return CmdCreatePort }

// SetPortAttrQuery sets the virtual LID a port should report.
type SetPortAttrQuery struct {
	Lid uint32
}

func (SetPortAttrQuery) cmd() Cmd { return CmdSetPortAttr }

// SetPortAttrReply echoes the LID the coordinator recorded.
type SetPortAttrReply struct {
	Lid uint32
}

func (SetPortAttrReply) cmd() Cmd { return CmdSetPortAttr }

// CreateQpQuery carries the kernel module's real queue pair number for a
// new queue pair. It has no GID fields.
type CreateQpQuery struct {
	QPN uint32
}

func (CreateQpQuery) cmd() Cmd { return CmdCreateQp }

// CreateQpReply carries back a queue pair number. The daemon answers with
// the query's QPN unchanged and does not register the queue pair with the
// coordinator.
type CreateQpReply struct {
	QPN uint32
}

func (CreateQpReply) cmd() Cmd { return CmdCreateQp }
