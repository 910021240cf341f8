// Package oscbridge exposes the engine to OSC clients. Clients register with their host
// and port, then receive every change of the current program.
package oscbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/Houston4444/OsciTronix/devices"
	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/vox"
)

const Prefix = "/oscitronix/"

const regPrefix = Prefix + "reg/"

// submitTimeout bounds how long an OSC handler waits on a full command queue.
const submitTimeout = time.Second

var oscInLog, oscOutLog *slog.Logger

func init() {
	oscInLog = logging.Get(logging.OSC_IN)
	oscOutLog = logging.Get(logging.OSC_OUT)
}

// Dialer returns a client sending to host:port.
type Dialer func(host string, port int) devices.OscClient

func dialUDP(host string, port int) devices.OscClient {
	return osc.NewClient(host, port)
}

type Bridge struct {
	runner *engine.Runner
	router *Dispatcher
	dial   Dialer

	mu      sync.Mutex
	clients map[string]devices.OscClient
}

type Option func(*Bridge)

// WithDialer replaces the UDP client constructor.
func WithDialer(d Dialer) Option {
	return func(b *Bridge) { b.dial = d }
}

func New(r *engine.Runner, opts ...Option) *Bridge {
	b := &Bridge{
		runner:  r,
		router:  NewDispatcher(),
		dial:    dialUDP,
		clients: map[string]devices.OscClient{},
	}
	for _, o := range opts {
		o(b)
	}
	b.router.AddMsgHandler(Prefix+"register", b.register)
	b.router.AddMsgHandler(Prefix+"unregister", b.unregister)
	b.router.AddMsgHandler(Prefix+"sync", b.sync)
	b.router.AddMsgHandler(Prefix+"mode", b.setMode)
	b.router.AddMsgHandler(Prefix+"current/set_param_value", b.setParamValue)
	b.router.AddMsgHandler(Prefix+"current/program_name", b.setProgramName)
	return b
}

// Dispatch implements osc.Dispatcher.
func (b *Bridge) Dispatch(packet osc.Packet) {
	b.router.Dispatch(packet)
}

// ListenAndServe serves OSC requests on the UDP address addr. It blocks.
func (b *Bridge) ListenAndServe(addr string) error {
	oscInLog.Info("Starting OSC server", "addr", addr)
	server := &osc.Server{
		Addr:       addr,
		Dispatcher: b,
	}
	return server.ListenAndServe()
}

// Clients returns the registered client addresses, sorted.
func (b *Bridge) Clients() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.clients))
	for addr := range b.clients {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

func (b *Bridge) submit(c engine.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	if err := b.runner.Submit(ctx, c); err != nil {
		oscInLog.Error("Failed to submit OSC command", "command", fmt.Sprintf("%T", c), "err", err)
	}
}

func clientArgs(msg *osc.Message) (string, int, error) {
	host, err := devices.StringArg(msg, 0)
	if err != nil {
		return "", 0, err
	}
	port, err := devices.IntArg(msg, 1)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func (b *Bridge) register(msg *osc.Message, _ []string) {
	host, port, err := clientArgs(msg)
	if err != nil {
		oscInLog.Warn("Invalid register message", "err", err)
		return
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	client := b.dial(host, port)

	b.mu.Lock()
	b.clients[addr] = client
	b.mu.Unlock()
	oscInLog.Info("OSC client registered", "client", addr)

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	snap, err := b.runner.Snapshot(ctx)
	if err != nil {
		oscInLog.Error("Failed to read current program", "err", err)
		return
	}
	data, err := json.Marshal(snap.Current)
	if err != nil {
		oscOutLog.Error("Failed to encode current program", "err", err)
		return
	}
	b.sendTo(addr, client, osc.NewMessage(Prefix+"current/get_json", string(data)))
}

func (b *Bridge) unregister(msg *osc.Message, _ []string) {
	host, port, err := clientArgs(msg)
	if err != nil {
		oscInLog.Warn("Invalid unregister message", "err", err)
		return
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	b.mu.Lock()
	delete(b.clients, addr)
	b.mu.Unlock()
	oscInLog.Info("OSC client unregistered", "client", addr)
}

func (b *Bridge) sync(*osc.Message, []string) {
	b.submit(engine.StartCommunicationCmd{})
}

func (b *Bridge) setMode(msg *osc.Message, _ []string) {
	name, err := devices.StringArg(msg, 0)
	if err != nil {
		oscInLog.Warn("Invalid mode message", "err", err)
		return
	}
	mode, err := vox.ParseMode(name)
	if err != nil {
		oscInLog.Warn("Invalid mode message", "err", err)
		return
	}
	b.submit(engine.SetModeCmd{Mode: mode})
}

func (b *Bridge) setParamValue(msg *osc.Message, _ []string) {
	var args [3]int
	for i := range args {
		v, err := devices.IntArg(msg, i)
		if err != nil {
			oscInLog.Warn("Invalid set_param_value message", "err", err)
			return
		}
		args[i] = v
	}
	if args[0] < 0 || args[0] > 0xFF {
		oscInLog.Warn("Invalid set_param_value domain", "domain", args[0])
		return
	}
	b.submit(engine.SetParamCmd{Domain: vox.Domain(args[0]), ID: args[1], Value: args[2]})
}

func (b *Bridge) setProgramName(msg *osc.Message, _ []string) {
	name, err := devices.StringArg(msg, 0)
	if err != nil {
		oscInLog.Warn("Invalid program_name message", "err", err)
		return
	}
	b.submit(engine.SetProgramNameCmd{Name: name})
}

// HandleEvent forwards an engine event to every registered client. Subscribe it to the
// engine; it runs on the engine goroutine.
func (b *Bridge) HandleEvent(ev engine.Event) {
	msg := eventMessage(ev)
	if msg == nil {
		return
	}
	b.mu.Lock()
	clients := make(map[string]devices.OscClient, len(b.clients))
	for addr, c := range b.clients {
		clients[addr] = c
	}
	b.mu.Unlock()

	for addr, c := range clients {
		b.sendTo(addr, c, msg)
	}
}

func (b *Bridge) sendTo(addr string, c devices.OscClient, msg *osc.Message) {
	oscOutLog.Debug("Sending OSC message", "client", addr, "addr", msg.Address, "args", msg.Arguments)
	if err := c.Send(msg); err != nil {
		oscOutLog.Warn("Failed to send OSC message", "client", addr, "addr", msg.Address, "err", err)
	}
}

func boolArg(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// eventMessage builds the notification for ev, or nil when clients need none.
func eventMessage(ev engine.Event) *osc.Message {
	switch ev.Kind {
	case engine.CommunicationStateChanged:
		return osc.NewMessage(regPrefix+"communication_state", boolArg(ev.Communication.IsOk()))

	case engine.CurrentChanged:
		data, err := json.Marshal(ev.Current)
		if err != nil {
			oscOutLog.Error("Failed to encode current program", "err", err)
			return nil
		}
		return osc.NewMessage(regPrefix+"program_changed", string(data))

	case engine.ModeChanged:
		return osc.NewMessage(regPrefix+"mode_changed", ev.Mode.String())

	case engine.ProgramNameChanged:
		return osc.NewMessage(regPrefix+"current/program_name", ev.Current.Name)

	case engine.ParamChanged:
		return paramMessage(ev)
	}
	return nil
}

func paramMessage(ev engine.Event) *osc.Message {
	const cur = regPrefix + "current/"
	p := ev.Current

	switch ev.Domain {
	case vox.DomainProgramName:
		return osc.NewMessage(cur+"program_name", p.Name)

	case vox.DomainNoiseGate:
		return osc.NewMessage(cur+"nr_sens", int32(p.NoiseGate))

	case vox.DomainEffectModel:
		slot := vox.Slot(ev.ID)
		if !slot.Valid() {
			return nil
		}
		return osc.NewMessage(cur+strings.ToLower(slot.String()), p.ModelName(slot))

	case vox.DomainEffectStatus:
		slot := vox.Slot(ev.ID)
		if slot == vox.SlotAmp || !slot.Valid() {
			return nil
		}
		return osc.NewMessage(cur+strings.ToLower(slot.String())+"/active", boolArg(p.Active[slot]))

	case vox.DomainAmp:
		a := vox.AmpParam(ev.ID)
		if !a.Valid() {
			return nil
		}
		return osc.NewMessage(cur+"amp/"+strings.ToLower(a.String()), int32(p.Amp[a]))

	case vox.DomainPedal1, vox.DomainPedal2, vox.DomainReverb:
		info, ok := vox.Lookup(&p, ev.Domain, ev.ID)
		if !ok {
			return nil
		}
		slot := vox.Slot(ev.Domain - vox.DomainPedal1 + vox.Domain(vox.SlotPedal1))
		values := p.SlotValues(slot)
		return osc.NewMessage(
			cur+strings.ToLower(ev.Domain.String())+"/"+strings.ToLower(info.Name),
			int32(values[ev.ID]))
	}
	return nil
}
