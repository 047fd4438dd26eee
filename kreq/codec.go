package kreq

import (
	"encoding/binary"
	"fmt"

	"github.com/ovey-io/ovey/idcodec"
)

// putGID writes a GID's two 64-bit halves to buf in wire order. putGID,
// getGID, putU64BE and getU64BE are the only places in this package that
// cross the host/wire byte-order boundary (spec.md's identifier codec
// invariant): every other function here moves idcodec.GID values around
// without touching their bytes.
func putGID(buf []byte, g idcodec.GID) {
	binary.LittleEndian.PutUint64(buf[0:8], idcodec.U64HostToBE(g.SubnetPrefix))
	binary.LittleEndian.PutUint64(buf[8:16], idcodec.U64HostToBE(g.InterfaceID))
}

func getGID(buf []byte) idcodec.GID {
	return idcodec.GID{
		SubnetPrefix: idcodec.U64BEToHost(binary.LittleEndian.Uint64(buf[0:8])),
		InterfaceID:  idcodec.U64BEToHost(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

func putU64BE(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, idcodec.U64HostToBE(v))
}

func getU64BE(buf []byte) uint64 {
	return idcodec.U64BEToHost(binary.LittleEndian.Uint64(buf))
}

// EncodeRequest serializes req into a fixed PacketSize-byte packet.
func EncodeRequest(req Request) ([]byte, error) {
	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(req.Cmd))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(requestHeaderSize))
	binary.LittleEndian.PutUint32(buf[4:8], req.Seq)
	copy(buf[8:24], req.Network[:])
	copy(buf[24:40], req.Device[:])
	binary.LittleEndian.PutUint16(buf[40:42], req.Port)

	body := buf[requestHeaderSize:]
	switch q := req.Query.(type) {
	case LeaseDeviceQuery:
		putU64BE(body[0:8], q.GUID)
	case LeaseGidQuery:
		binary.LittleEndian.PutUint32(body[0:4], q.Idx)
		putGID(body[4:20], q.Gid)
	case ResolveQpGidQuery:
		putGID(body[0:16], q.Gid)
		binary.LittleEndian.PutUint32(body[16:20], q.QPN)
	case SetGidQuery:
		binary.LittleEndian.PutUint32(body[0:4], q.RealIdx)
		binary.LittleEndian.PutUint32(body[4:8], q.VirtIdx)
		putGID(body[8:24], q.Real)
		putGID(body[24:40], q.Virt)
	case CreatePortQuery:
		binary.LittleEndian.PutUint16(body[0:2], q.Port)
		binary.LittleEndian.PutUint32(body[4:8], q.PkeyTblLen)
		binary.LittleEndian.PutUint32(body[8:12], q.GidTblLen)
		binary.LittleEndian.PutUint32(body[12:16], q.CoreCapFlags)
		binary.LittleEndian.PutUint32(body[16:20], q.MaxMadSize)
	case SetPortAttrQuery:
		binary.LittleEndian.PutUint32(body[0:4], q.Lid)
	case CreateQpQuery:
		binary.LittleEndian.PutUint32(body[0:4], q.QPN)
	default:
		return nil, fmt.Errorf("kreq: unknown query type %T", req.Query)
	}
	return buf, nil
}

// DecodeRequest parses a PacketSize-byte packet into a Request.
func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < PacketSize {
		return Request{}, fmt.Errorf("kreq: short packet (%d bytes, want %d)", len(buf), PacketSize)
	}
	req := Request{
		Cmd: Cmd(binary.LittleEndian.Uint16(buf[0:2])),
		Seq: binary.LittleEndian.Uint32(buf[4:8]),
		Port: binary.LittleEndian.Uint16(buf[40:42]),
	}
	copy(req.Network[:], buf[8:24])
	copy(req.Device[:], buf[24:40])

	body := buf[requestHeaderSize:]
	switch req.Cmd {
	case CmdLeaseDevice:
		req.Query = LeaseDeviceQuery{GUID: getU64BE(body[0:8])}
	case CmdLeaseGid:
		req.Query = LeaseGidQuery{Idx: binary.LittleEndian.Uint32(body[0:4]), Gid: getGID(body[4:20])}
	case CmdResolveQpGid:
		req.Query = ResolveQpGidQuery{Gid: getGID(body[0:16]), QPN: binary.LittleEndian.Uint32(body[16:20])}
	case CmdSetGid:
		req.Query = SetGidQuery{
			RealIdx: binary.LittleEndian.Uint32(body[0:4]),
			VirtIdx: binary.LittleEndian.Uint32(body[4:8]),
			Real:    getGID(body[8:24]),
			Virt:    getGID(body[24:40]),
		}
	case CmdCreatePort:
		req.Query = CreatePortQuery{
			Port:         binary.LittleEndian.Uint16(body[0:2]),
			PkeyTblLen:   binary.LittleEndian.Uint32(body[4:8]),
			GidTblLen:    binary.LittleEndian.Uint32(body[8:12]),
			CoreCapFlags: binary.LittleEndian.Uint32(body[12:16]),
			MaxMadSize:   binary.LittleEndian.Uint32(body[16:20]),
		}
	case CmdSetPortAttr:
		req.Query = SetPortAttrQuery{Lid: binary.LittleEndian.Uint32(body[0:4])}
	case CmdCreateQp:
		req.Query = CreateQpQuery{QPN: binary.LittleEndian.Uint32(body[0:4])}
	default:
		return Request{}, fmt.Errorf("kreq: unknown cmd_type %d", req.Cmd)
	}
	return req, nil
}

// EncodeResponse serializes resp into a fixed PacketSize-byte packet.
func EncodeResponse(resp Response) ([]byte, error) {
	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(resp.Cmd))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(responseHeaderSize))
	binary.LittleEndian.PutUint32(buf[4:8], resp.Seq)

	body := buf[responseHeaderSize:]
	switch r := resp.Reply.(type) {
	case LeaseDeviceReply:
		putU64BE(body[0:8], r.GUID)
	case LeaseGidReply:
		binary.LittleEndian.PutUint32(body[0:4], r.Idx)
		putGID(body[4:20], r.Gid)
	case ResolveQpGidReply:
		putGID(body[0:16], r.Gid)
		binary.LittleEndian.PutUint32(body[16:20], r.QPN)
	case SetGidReply:
		binary.LittleEndian.PutUint32(body[0:4], r.RealIdx)
		binary.LittleEndian.PutUint32(body[4:8], r.VirtIdx)
		putGID(body[8:24], r.Real)
		putGID(body[24:40], r.Virt)
	case CreatePortReply:
		binary.LittleEndian.PutUint16(body[0:2], r.Port)
		binary.LittleEndian.PutUint32(body[4:8], r.PkeyTblLen)
		binary.LittleEndian.PutUint32(body[8:12], r.GidTblLen)
		binary.LittleEndian.PutUint32(body[12:16], r.CoreCapFlags)
		binary.LittleEndian.PutUint32(body[16:20], r.MaxMadSize)
	case SetPortAttrReply:
		binary.LittleEndian.PutUint32(body[0:4], r.Lid)
	case CreateQpReply:
		binary.LittleEndian.PutUint32(body[0:4], r.QPN)
	default:
		return nil, fmt.Errorf("kreq: unknown reply type %T", resp.Reply)
	}
	return buf, nil
}

// DecodeResponse parses a PacketSize-byte packet into a Response. The
// packet's own cmd_type field selects which Reply variant the body is
// decoded as, since the body bytes alone do not distinguish e.g.
// CreatePort's fields from another variant's.
func DecodeResponse(buf []byte) (Response, error) {
	if len(buf) < PacketSize {
		return Response{}, fmt.Errorf("kreq: short packet (%d bytes, want %d)", len(buf), PacketSize)
	}
	resp := Response{
		Cmd: Cmd(binary.LittleEndian.Uint16(buf[0:2])),
		Seq: binary.LittleEndian.Uint32(buf[4:8]),
	}
	body := buf[responseHeaderSize:]
	switch resp.Cmd {
	case CmdLeaseDevice:
		resp.Reply = LeaseDeviceReply{GUID: getU64BE(body[0:8])}
	case CmdLeaseGid:
		resp.Reply = LeaseGidReply{Idx: binary.LittleEndian.Uint32(body[0:4]), Gid: getGID(body[4:20])}
	case CmdResolveQpGid:
		resp.Reply = ResolveQpGidReply{Gid: getGID(body[0:16]), QPN: binary.LittleEndian.Uint32(body[16:20])}
	case CmdSetGid:
		resp.Reply = SetGidReply{
			RealIdx: binary.LittleEndian.Uint32(body[0:4]),
			VirtIdx: binary.LittleEndian.Uint32(body[4:8]),
			Real:    getGID(body[8:24]),
			Virt:    getGID(body[24:40]),
		}
	case CmdCreatePort:
		resp.Reply = CreatePortReply{
			Port:         binary.LittleEndian.Uint16(body[0:2]),
			PkeyTblLen:   binary.LittleEndian.Uint32(body[4:8]),
			GidTblLen:    binary.LittleEndian.Uint32(body[8:12]),
			CoreCapFlags: binary.LittleEndian.Uint32(body[12:16]),
			MaxMadSize:   binary.LittleEndian.Uint32(body[16:20]),
		}
	case CmdSetPortAttr:
		resp.Reply = SetPortAttrReply{Lid: binary.LittleEndian.Uint32(body[0:4])}
	case CmdCreateQp:
		resp.Reply = CreateQpReply{QPN: binary.LittleEndian.Uint32(body[0:4])}
	default:
		return Response{}, fmt.Errorf("kreq: unknown cmd_type %d", resp.Cmd)
	}
	return resp, nil
}
