package ocp

// Operation codes carried in the generic-netlink command byte, per
// spec.md §4.2. Echo through DaemonBye travel daemon-to-kernel on S_DK;
// ResolveCompletion and ShutdownDaemon are kernel-initiated and arrive on
// S_KD.
const (
	opEcho              uint8 = 1
	opCreateDevice      uint8 = 2
	opDeleteDevice      uint8 = 3
	opDebugRespondError uint8 = 4
	opDeviceInfo        uint8 = 5
	opDaemonHello       uint8 = 6
	opDaemonBye         uint8 = 7
	opResolveCompletion uint8 = 8
	opShutdownDaemon    uint8 = 9
)

// opName renders an operation code for metric labels and log lines; unknown
// codes still produce a usable (if generic) label rather than panicking.
func opName(op uint8) string {
	switch op {
	case opEcho:
		return "echo"
	case opCreateDevice:
		return "create_device"
	case opDeleteDevice:
		return "delete_device"
	case opDebugRespondError:
		return "debug_respond_error"
	case opDeviceInfo:
		return "device_info"
	case opDaemonHello:
		return "daemon_hello"
	case opDaemonBye:
		return "daemon_bye"
	case opResolveCompletion:
		return "resolve_completion"
	case opShutdownDaemon:
		return "shutdown_daemon"
	default:
		return "unknown"
	}
}

// CreateDeviceRequest names the virtual device to register and the real
// device it shadows (spec.md §4.2's CreateDevice operation).
type CreateDeviceRequest struct {
	DeviceName       string
	ParentDeviceName string
	NodeGUID         string // canonical GUID text, see idcodec.GUIDU64ToString
	ParentNodeGUID   string
	VirtNetUUID      string
}

func (r CreateDeviceRequest) encode() []byte {
	var buf []byte
	buf = append(buf, attrString(attrDeviceName, r.DeviceName)...)
	buf = append(buf, attrString(attrParentDeviceName, r.ParentDeviceName)...)
	buf = append(buf, attrString(attrNodeGuid, r.NodeGUID)...)
	buf = append(buf, attrString(attrParentNodeGuid, r.ParentNodeGUID)...)
	buf = append(buf, attrString(attrVirtNetUUIDStr, r.VirtNetUUID)...)
	return buf
}

// DeleteDeviceRequest identifies a previously created virtual device.
type DeleteDeviceRequest struct {
	DeviceName  string
	VirtNetUUID string
}

func (r DeleteDeviceRequest) encode() []byte {
	var buf []byte
	buf = append(buf, attrString(attrDeviceName, r.DeviceName)...)
	buf = append(buf, attrString(attrVirtNetUUIDStr, r.VirtNetUUID)...)
	return buf
}

// DeviceInfoRequest asks the kernel module to report everything it knows
// about one virtual device.
type DeviceInfoRequest struct {
	DeviceName  string
	VirtNetUUID string
}

func (r DeviceInfoRequest) encode() []byte {
	var buf []byte
	buf = append(buf, attrString(attrDeviceName, r.DeviceName)...)
	buf = append(buf, attrString(attrVirtNetUUIDStr, r.VirtNetUUID)...)
	return buf
}

// DeviceInfoResponse is the kernel module's answer to DeviceInfoRequest.
type DeviceInfoResponse struct {
	DeviceName       string
	ParentDeviceName string
	NodeGUID         string
	ParentNodeGUID   string
}

func decodeDeviceInfoResponse(attrs []attrTLV) (DeviceInfoResponse, error) {
	var resp DeviceInfoResponse
	var err error
	if resp.DeviceName, err = attrStringValue(attrs, attrDeviceName); err != nil {
		return resp, err
	}
	if resp.ParentDeviceName, err = attrStringValue(attrs, attrParentDeviceName); err != nil {
		return resp, err
	}
	if resp.NodeGUID, err = attrStringValue(attrs, attrNodeGuid); err != nil {
		return resp, err
	}
	if resp.ParentNodeGUID, err = attrStringValue(attrs, attrParentNodeGuid); err != nil {
		return resp, err
	}
	return resp, nil
}

// DebugRespondErrorRequest asks the kernel module to answer this request
// with an NLMSG_ERROR, for driving the daemon's error-handling paths under
// test without real hardware.
type DebugRespondErrorRequest struct {
	Msg string
}

func (r DebugRespondErrorRequest) encode() []byte {
	return attrString(attrMsg, r.Msg)
}

// ResolveCompletionRequest is a kernel-initiated request arriving on S_KD:
// the kernel module needs the daemon to resolve and acknowledge one
// in-flight completion before it can proceed.
type ResolveCompletionRequest struct {
	CompletionID uint32
	DeviceName   string
}

func decodeResolveCompletionRequest(attrs []attrTLV) (ResolveCompletionRequest, error) {
	var req ResolveCompletionRequest
	var err error
	if req.CompletionID, err = attrU32Value(attrs, attrCompletionID); err != nil {
		return req, err
	}
	if req.DeviceName, err = attrStringValue(attrs, attrDeviceName); err != nil {
		return req, err
	}
	return req, nil
}

// ResolveCompletionReply is the daemon's acknowledgment sent back on S_KD.
type ResolveCompletionReply struct {
	CompletionID uint32
}

func (r ResolveCompletionReply) encode() []byte {
	return attrU32(attrCompletionID, r.CompletionID)
}

// KernelRequest is one message the kernel module pushed on S_KD: either a
// completion resolution or a shutdown notice, selected by Op.
// ResolveCompletion is populated only when Op is OpResolveCompletion; a
// shutdown notice carries no payload.
type KernelRequest struct {
	Op                uint8
	ResolveCompletion ResolveCompletionRequest
}

// OpResolveCompletion and OpShutdownDaemon are the two S_KD operation codes
// a caller of KernelRequests needs to switch on, exported since the daemon
// package lives outside ocp and must tell them apart.
const (
	OpResolveCompletion = opResolveCompletion
	OpShutdownDaemon    = opShutdownDaemon
)
