package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	midi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/spf13/cobra"

	"github.com/Houston4444/OsciTronix/api"
	"github.com/Houston4444/OsciTronix/config"
	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/mcpserver"
	"github.com/Houston4444/OsciTronix/oscbridge"
	"github.com/Houston4444/OsciTronix/tui"
)

// syncTimeout bounds reading or writing every slot of the amplifier.
const syncTimeout = 30 * time.Second

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRun(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	if withTUI && logFile == "" {
		logging.SetOutput(io.Discard)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c := newCore(cfg)
	if programName != "" {
		if cfg.NSMMode != config.NSMLoadSavedProgram {
			c.log.Warn("Ignoring --program", "nsm_mode", cfg.NSMMode)
		} else if err := c.loadOnReady(programName); err != nil {
			return err
		}
	}

	var feed tui.Feed
	if withTUI {
		feed = tui.NewFeed(64)
		c.engine.Subscribe(feed.Push)
	}
	var bridge *oscbridge.Bridge
	if cfg.OSC.Listen != "" {
		bridge = oscbridge.New(c.runner)
		c.engine.Subscribe(bridge.HandleEvent)
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.start(ctx)
	if bridge != nil {
		go func() {
			if err := bridge.ListenAndServe(cfg.OSC.Listen); err != nil {
				c.log.Error("OSC server stopped", "err", err)
			}
		}()
	}
	if cfg.LogControl.Listen != "" {
		go func() {
			if err := logging.ServeLevelControl(cfg.LogControl.Listen); err != nil {
				c.log.Error("Log control server stopped", "err", err)
			}
		}()
	}
	if cfg.HTTP.Listen != "" {
		srv := api.New(c.runner, api.WithLibrary(c.library))
		c.goRun(ctx, "http", func(ctx context.Context) error { return srv.Run(ctx, cfg.HTTP.Listen) })
	}

	if withTUI {
		err := tui.Run(c.runner, feed)
		cancel()
		return firstErr(err, c.wait())
	}
	<-ctx.Done()
	return c.wait()
}

func runMCP(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c := newCore(cfg)

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.start(ctx)

	err = mcpserver.New(c.runner, c.library, version).ServeStdio()
	cancel()
	return firstErr(err, c.wait())
}

func runExport(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AutoConnectDevice = false
	c := newCore(cfg)

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	c.start(ctx)

	if err := c.awaitConnected(ctx); err != nil {
		return err
	}
	if err := c.awaitReady(ctx, engine.StartCommunicationCmd{}); err != nil {
		return fmt.Errorf("reading amplifier: %w", err)
	}
	snap, err := c.runner.Snapshot(ctx)
	cancel()
	if err != nil {
		return err
	}
	_ = c.wait()

	current := snap.Current
	fa := library.FullAmp{Banks: snap.User[:], AmpFX: snap.AmpFX[:], Current: &current}
	if err := library.WriteFullAmp(args[0], fa); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d banks and %d AmpFX presets to %s\n", len(fa.Banks), len(fa.AmpFX), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	fa, err := library.ReadFullAmp(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AutoConnectDevice = false
	c := newCore(cfg)

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	c.start(ctx)

	if err := c.awaitConnected(ctx); err != nil {
		return err
	}
	cmds := []engine.Command{engine.LoadFullAmpCmd{Banks: fa.Banks, AmpFX: fa.AmpFX}}
	if fa.Current != nil {
		cmds = append(cmds, engine.LoadProgramCmd{Program: *fa.Current})
	}
	if err := c.awaitReady(ctx, cmds...); err != nil {
		return fmt.Errorf("writing amplifier: %w", err)
	}
	cancel()
	_ = c.wait()
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d banks and %d AmpFX presets from %s\n", len(fa.Banks), len(fa.AmpFX), args[0])
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
