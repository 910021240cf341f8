package engine

import (
	"context"
	"time"

	"github.com/Houston4444/OsciTronix/vox"
)

// Command is one engine operation submitted to a Runner.
type Command interface {
	Apply(e *Engine)
}

type ReceiveCmd struct{ Frame []byte }

func (c ReceiveCmd) Apply(e *Engine) { e.Receive(c.Frame) }

type SetParamCmd struct {
	Domain vox.Domain
	ID     int
	Value  int
}

func (c SetParamCmd) Apply(e *Engine) { e.SetParamValue(c.Domain, c.ID, c.Value) }

type SetProgramNameCmd struct{ Name string }

func (c SetProgramNameCmd) Apply(e *Engine) { e.SetProgramName(c.Name) }

type SetModeCmd struct{ Mode vox.Mode }

func (c SetModeCmd) Apply(e *Engine) { e.SetMode(c.Mode) }

type SelectUserBankCmd struct{ Num int }

func (c SelectUserBankCmd) Apply(e *Engine) { e.SetUserBankNum(c.Num) }

type SelectPresetCmd struct{ Num int }

func (c SelectPresetCmd) Apply(e *Engine) { e.SetPresetNum(c.Num) }

type UploadUserProgramCmd struct{ Num int }

func (c UploadUserProgramCmd) Apply(e *Engine) { e.UploadCurrentToUserProgram(c.Num) }

type UploadAmpFXCmd struct{ Num int }

func (c UploadAmpFXCmd) Apply(e *Engine) { e.UploadCurrentToUserAmpFX(c.Num) }

type LoadProgramCmd struct{ Program vox.Program }

func (c LoadProgramCmd) Apply(e *Engine) { e.LoadProgram(c.Program) }

type LoadBankCmd struct {
	Program vox.Program
	Num     int
}

func (c LoadBankCmd) Apply(e *Engine) { e.LoadBank(c.Program, c.Num) }

type LoadAmpFXCmd struct {
	Program vox.Program
	Num     int
}

func (c LoadAmpFXCmd) Apply(e *Engine) { e.LoadAmpFX(c.Program, c.Num) }

type LoadFullAmpCmd struct {
	Banks []vox.Program
	AmpFX []vox.Program
}

func (c LoadFullAmpCmd) Apply(e *Engine) { e.LoadFullAmp(c.Banks, c.AmpFX) }

type StartCommunicationCmd struct{}

func (StartCommunicationCmd) Apply(e *Engine) { e.StartCommunication() }

type MidiConnectCmd struct{ State MidiConnectState }

func (c MidiConnectCmd) Apply(e *Engine) { e.SetMidiConnectState(c.State) }

type ForceLostCmd struct{}

func (ForceLostCmd) Apply(e *Engine) { e.ForceLost() }

// FuncCmd runs an arbitrary function on the engine goroutine.
type FuncCmd func(e *Engine)

func (f FuncCmd) Apply(e *Engine) { f(e) }

// Runner owns the only goroutine allowed to touch its Engine. Commands are applied one at
// a time in submission order.
type Runner struct {
	e    *Engine
	cmds chan Command
}

func NewRunner(e *Engine, size int) *Runner {
	if size < 1 {
		size = 1
	}
	return &Runner{e: e, cmds: make(chan Command, size)}
}

// Run applies commands until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-r.cmds:
			c.Apply(r.e)
		}
	}
}

// Submit queues c, waiting while the queue is full.
func (r *Runner) Submit(ctx context.Context, c Command) error {
	select {
	case r.cmds <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues c unless the queue is full.
func (r *Runner) TrySubmit(c Command) bool {
	select {
	case r.cmds <- c:
		return true
	default:
		return false
	}
}

// Do runs fn on the engine goroutine and waits for it to return. When ctx ends first, fn
// may still run later; it must not write state the caller reads after Do returns.
func (r *Runner) Do(ctx context.Context, fn func(e *Engine)) error {
	done := make(chan struct{})
	err := r.Submit(ctx, FuncCmd(func(e *Engine) {
		defer close(done)
		fn(e)
	}))
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot copies the engine state from the engine goroutine.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	out := make(chan Snapshot, 1)
	if err := r.Submit(ctx, FuncCmd(func(e *Engine) { out <- e.Snapshot() })); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-out:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Watchdog downgrades the communication state to Lost when the amplifier does not answer
// within Grace.
type Watchdog struct {
	Runner   *Runner
	Grace    time.Duration
	Interval time.Duration
}

func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	check := FuncCmd(func(e *Engine) { e.CheckTimeout(w.Grace) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// A full queue means the next tick will do.
			w.Runner.TrySubmit(check)
		}
	}
}
