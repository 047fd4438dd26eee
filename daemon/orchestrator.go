package daemon

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ovey-io/ovey/idcodec"
	"github.com/ovey-io/ovey/kreq"
	"github.com/ovey-io/ovey/metrics"
	"github.com/ovey-io/ovey/ocp"
)

// Orchestrator wires the three transports a running daemon needs together:
// the genetlink control channel (ocp), the kernel request channel (kreq),
// and the coordinator HTTP client. Grounded on
// original_source/libocp/src/ocp_core/orchestrator.rs's split between the
// two socket directions, generalized here to include the character-device
// side the Rust orchestrator didn't own directly (main.rs's cdev_thread did).
type Orchestrator struct {
	Ocp    *ocp.Ocp
	Kreq   *kreq.Device
	Client *CoordinatorClient
}

// networkUUID renders a 16-byte kernel-supplied network identifier as the
// canonical UUID text the coordinator's REST API expects.
func networkUUID(b [16]byte) string {
	return uuid.UUID(b).String()
}

// deviceGUID extracts the real device GUID the kernel module packs into a
// Request's 16-byte Device field: the low 8 bytes, big-endian, the same
// convention kreq.putU64BE/getU64BE use for every other wire GUID/GID half
// (the high 8 bytes are reserved and always zero, keeping the field the
// same width as Network's UUID for header-layout symmetry).
func deviceGUID(b [16]byte) uint64 {
	return idcodec.U64BEToHost(binary.LittleEndian.Uint64(b[8:16]))
}

// Run starts the orchestrator's two background loops: the kernel request
// channel server and the S_KD completion-resolution drain. It blocks until
// ctx is canceled, the kernel request channel returns an error, or the S_KD
// drain ends (the kernel sent ShutdownDaemon or the stream closed); in the
// last case it returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- o.Kreq.Serve(ctx, o.handleKernelRequest)
	}()
	go func() {
		o.drainResolveCompletions(ctx)
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleKernelRequest answers one kernel-request-channel packet by
// forwarding it to the network's coordinator, the Go counterpart of
// coordinator_service.rs's forward_* functions but over the character
// device rather than the CLI's own REST surface.
func (o *Orchestrator) handleKernelRequest(ctx context.Context, req kreq.Request) (kreq.Response, error) {
	start := time.Now()
	result := "ok"
	defer func() {
		metrics.KernelRequestDuration.WithLabelValues(req.Cmd.String()).Observe(time.Since(start).Seconds())
		metrics.KernelRequestCount.WithLabelValues(req.Cmd.String(), result).Inc()
	}()

	network := networkUUID(req.Network)
	guid := deviceGUID(req.Device)

	reply, err := o.resolveKernelRequest(network, guid, req)
	if err != nil {
		result = "error"
		return kreq.Response{}, err
	}
	return kreq.Response{Cmd: req.Cmd, Seq: req.Seq, Reply: reply}, nil
}

func (o *Orchestrator) resolveKernelRequest(network string, guid uint64, req kreq.Request) (kreq.Reply, error) {
	switch q := req.Query.(type) {
	case kreq.LeaseDeviceQuery:
		virt, err := o.Client.LeaseDevice(network, q.GUID, "")
		if err != nil {
			return nil, err
		}
		return kreq.LeaseDeviceReply{GUID: virt}, nil

	case kreq.LeaseGidQuery:
		virt, err := o.Client.LeaseGid(network, guid, req.Port, q.Idx, q.Gid)
		if err != nil {
			return nil, err
		}
		return kreq.LeaseGidReply{Idx: q.Idx, Gid: virt}, nil

	case kreq.SetGidQuery:
		if err := o.Client.SetGid(network, guid, req.Port, q.RealIdx, q.Real, q.Virt); err != nil {
			return nil, err
		}
		return kreq.SetGidReply{RealIdx: q.RealIdx, VirtIdx: q.VirtIdx, Real: q.Real, Virt: q.Virt}, nil

	case kreq.ResolveQpGidQuery:
		real, realQPN, err := o.Client.ResolveQp(network, q.Gid, q.QPN)
		if err != nil {
			return nil, err
		}
		return kreq.ResolveQpGidReply{Gid: real, QPN: realQPN}, nil

	case kreq.CreatePortQuery:
		port, err := o.Client.CreatePort(network, guid, q.Port, q.PkeyTblLen, q.GidTblLen, q.CoreCapFlags, q.MaxMadSize)
		if err != nil {
			return nil, err
		}
		return kreq.CreatePortReply{
			Port:         port.Port,
			PkeyTblLen:   port.PkeyTblLen,
			GidTblLen:    port.GidTblLen,
			CoreCapFlags: port.CoreCapFlags,
			MaxMadSize:   port.MaxMadSize,
		}, nil

	case kreq.SetPortAttrQuery:
		lid, err := idcodec.LIDStringToU16(fmt.Sprintf("0x%04x", q.Lid))
		if err != nil {
			return nil, err
		}
		if _, err := o.Client.SetPortAttr(network, guid, req.Port, lid); err != nil {
			return nil, err
		}
		return kreq.SetPortAttrReply{Lid: q.Lid}, nil

	case kreq.CreateQpQuery:
		// The kernel module supplies only its own real queue pair number;
		// without a GID context CreateQp has nothing to pair it against at
		// this layer, so the virtual number it reports back is an identity
		// mapping rather than one the coordinator tracks for ResolveQpGid.
		return kreq.CreateQpReply{QPN: q.QPN}, nil

	default:
		return nil, fmt.Errorf("daemon: unhandled kernel request query type %T", req.Query)
	}
}

// drainResolveCompletions acknowledges every kernel-initiated completion
// request on S_KD. Ovey's completion-queue resolution only needs the
// daemon's acknowledgment to unblock the kernel module's caller; the
// virtual-to-real translation itself already happened when the queue pair
// was created (CreateQp/ResolveQpGid), so there is nothing further to look
// up here.
func (o *Orchestrator) drainResolveCompletions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case kr, ok := <-o.Ocp.KernelRequests():
			if !ok {
				return
			}
			switch kr.Op {
			case ocp.OpResolveCompletion:
				if err := o.Ocp.ResolveCompletion(ocp.ResolveCompletionReply{CompletionID: kr.ResolveCompletion.CompletionID}); err != nil {
					log.Printf("daemon: acknowledging completion %d: %v", kr.ResolveCompletion.CompletionID, err)
				}
			case ocp.OpShutdownDaemon:
				log.Print("daemon: kernel module requested shutdown")
				return
			}
		}
	}
}
