package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Houston4444/OsciTronix/config"
	"github.com/Houston4444/OsciTronix/devices"
	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/vox"
)

// core owns the engine, its runner and the MIDI link. Everything a command needs is
// wired in newCore, before start launches the goroutines.
type core struct {
	cfg     config.Config
	engine  *engine.Engine
	runner  *engine.Runner
	library *library.Library
	device  *devices.MidiDevice
	log     *slog.Logger

	connected chan struct{}
	wg        sync.WaitGroup
	errs      chan error
}

func newCore(cfg config.Config) *core {
	c := &core{
		cfg:       cfg,
		engine:    engine.New(),
		library:   library.New(cfg.LibraryDir),
		log:       logging.Get(logging.META),
		connected: make(chan struct{}),
		errs:      make(chan error, 8),
	}
	c.runner = engine.NewRunner(c.engine, cfg.QueueSize)

	in, errIn := devices.FindInPort(cfg.MIDI.InPort)
	out, errOut := devices.FindOutPort(cfg.MIDI.OutPort)
	if err := errors.Join(errIn, errOut); err != nil {
		c.log.Warn("Amplifier not found, running without MIDI", "err", err)
		return c
	}
	c.device = devices.NewMidiDevice(in, out)
	c.engine.SetSender(c.device)
	return c
}

// start launches the runner, the watchdog and the MIDI link. They stop when ctx is done.
func (c *core) start(ctx context.Context) {
	c.goRun(ctx, "runner", c.runner.Run)
	w := &engine.Watchdog{Runner: c.runner, Grace: c.cfg.Watchdog.Grace, Interval: c.cfg.Watchdog.Interval}
	c.goRun(ctx, "watchdog", w.Run)

	if c.device == nil {
		return
	}
	c.device.SysEx.Match(vox.Header).Bind(func(data []byte) error {
		return c.runner.Submit(ctx, engine.ReceiveCmd{Frame: data})
	})
	var once sync.Once
	c.device.OnConnect(func(in, out bool) {
		state := engine.ConnectStateOf(true, in, out)
		if err := c.runner.Submit(ctx, engine.MidiConnectCmd{State: state}); err != nil {
			return
		}
		if in && out {
			once.Do(func() { close(c.connected) })
			if c.cfg.AutoConnectDevice {
				_ = c.runner.Submit(ctx, engine.StartCommunicationCmd{})
			}
		}
	})
	c.goRun(ctx, "midi", c.device.Run)
}

func (c *core) goRun(ctx context.Context, name string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.errs <- fmt.Errorf("%s: %w", name, err)
		}
	}()
}

// wait blocks until every goroutine started by start has returned and reports the first
// failure.
func (c *core) wait() error {
	c.wg.Wait()
	close(c.errs)
	return <-c.errs
}

// awaitConnected blocks until both MIDI ports are open.
func (c *core) awaitConnected(ctx context.Context) error {
	if c.device == nil {
		return fmt.Errorf("no MIDI port matches %q / %q", c.cfg.MIDI.InPort, c.cfg.MIDI.OutPort)
	}
	select {
	case <-c.connected:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitReady submits cmds and blocks until the amplifier has answered everything sent.
func (c *core) awaitReady(ctx context.Context, cmds ...engine.Command) error {
	ready := make(chan struct{})
	registered := make(chan func(), 1)
	err := c.runner.Submit(ctx, engine.FuncCmd(func(e *engine.Engine) {
		var once sync.Once
		registered <- e.OnReady(func() { once.Do(func() { close(ready) }) })
	}))
	if err != nil {
		return err
	}
	var cancel func()
	select {
	case cancel = <-registered:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { _ = c.runner.Do(ctx, func(*engine.Engine) { cancel() }) }()

	for _, cmd := range cmds {
		if err := c.runner.Submit(ctx, cmd); err != nil {
			return err
		}
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loadOnReady loads the library program name the first time the amplifier has been read.
// It must be called before start.
func (c *core) loadOnReady(name string) error {
	p, err := c.library.Load(name)
	if err != nil {
		return err
	}
	var cancel func()
	cancel = c.engine.OnReady(func() {
		cancel()
		c.log.Info("Loading saved program", "name", p.Name)
		c.engine.LoadProgram(p)
	})
	return nil
}
