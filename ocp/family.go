package ocp

import (
	"encoding/binary"
	"fmt"
)

// familyName is the generic-netlink family the rdma-ovey kernel module
// registers. Both OCP sockets resolve it independently at connect time.
const familyName = "rdma-ovey"

// resolveFamily sends a CTRL_CMD_GETFAMILY request over t and returns the
// kernel-assigned generic-netlink family id used as the nlmsghdr.Type for
// every subsequent OCP message on this socket.
func resolveFamily(t transport, seq, pid uint32) (uint16, error) {
	attrs := attrString(ctrlAttrFamilyName, familyName)
	req := encodeGenlMessage(genlIDCtrl, nlmFRequest, seq, pid, ctrlCmdGetFamily, attrs)
	if err := t.Send(req); err != nil {
		return 0, fmt.Errorf("ocp: sending CTRL_CMD_GETFAMILY: %w", err)
	}

	buf := make([]byte, 4096)
	n, err := t.Recv(buf)
	if err != nil {
		return 0, fmt.Errorf("ocp: receiving family reply: %w", err)
	}
	frame, err := decodeGenlMessage(buf[:n])
	if err != nil {
		return 0, err
	}
	if frame.Header.Type == nlmsgError {
		errno, err := nlmsgerrErrno(buf[:n])
		if err != nil {
			return 0, err
		}
		if errno != 0 {
			return 0, fmt.Errorf("ocp: kernel does not know family %q (errno %d); is the rdma-ovey module loaded?", familyName, errno)
		}
	}
	a, ok := findAttr(frame.Attrs, ctrlAttrFamilyID)
	if !ok {
		return 0, fmt.Errorf("ocp: CTRL_CMD_GETFAMILY reply missing family id attribute")
	}
	if len(a.Data) < 2 {
		return 0, fmt.Errorf("ocp: family id attribute too short (%d bytes)", len(a.Data))
	}
	return binary.LittleEndian.Uint16(a.Data), nil
}
