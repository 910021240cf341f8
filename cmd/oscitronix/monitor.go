package main

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/Houston4444/OsciTronix/oscbridge"
)

var (
	monitorListen string
	monitorBridge string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor-osc",
	Short: "Register with a running bridge and print every OSC message it sends",
	Args:  cobra.NoArgs,
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorListen, "listen", "127.0.0.1:9024", "UDP address to receive OSC messages on")
	monitorCmd.Flags().StringVar(&monitorBridge, "bridge", "127.0.0.1:9023", "UDP address of the oscitronix bridge")
	rootCmd.AddCommand(monitorCmd)
}

// printer is an osc.Dispatcher writing one line per message.
type printer struct{ w io.Writer }

func (p printer) Dispatch(packet osc.Packet) {
	switch pk := packet.(type) {
	case *osc.Message:
		fmt.Fprintf(p.w, "%s %v\n", pk.Address, pk.Arguments)
	case *osc.Bundle:
		for _, m := range pk.Messages {
			p.Dispatch(m)
		}
		for _, b := range pk.Bundles {
			p.Dispatch(b)
		}
	}
}

// registerMsg asks the bridge at bridgeAddr to send its updates to listen.
func registerMsg(listen string) (*osc.Message, error) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("port %q: %w", portStr, err)
	}
	return osc.NewMessage(oscbridge.Prefix+"register", host, int32(port)), nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	reg, err := registerMsg(monitorListen)
	if err != nil {
		return err
	}
	host, portStr, err := net.SplitHostPort(monitorBridge)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("bridge port %q: %w", portStr, err)
	}

	server := &osc.Server{
		Addr:       monitorListen,
		Dispatcher: printer{cmd.OutOrStdout()},
	}
	errs := make(chan error, 1)
	go func() { errs <- server.ListenAndServe() }()

	if err := osc.NewClient(host, port).Send(reg); err != nil {
		return fmt.Errorf("registering with %s: %w", monitorBridge, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening for OSC messages on %s (UDP)...\n", monitorListen)

	ctx, stop := signalContext()
	defer stop()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	unreg := osc.NewMessage(oscbridge.Prefix+"unregister", reg.Arguments...)
	return osc.NewClient(host, port).Send(unreg)
}
