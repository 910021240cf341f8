// Package mcpserver exposes the amplifier mirror as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/vox"
)

const toolTimeout = 2 * time.Second

type Server struct {
	runner  *engine.Runner
	library *library.Library
	mcp     *server.MCPServer
	log     *slog.Logger
}

// New registers the tools. lib may be nil, in which case the library tools are left out.
func New(r *engine.Runner, lib *library.Library, version string) *Server {
	s := &Server{
		runner:  r,
		library: lib,
		mcp:     server.NewMCPServer("OsciTronix MCP", version, server.WithToolCapabilities(false)),
		log:     logging.Get(logging.MCP),
	}

	s.mcp.AddTool(mcp.NewTool("oscitronix_get-state",
		mcp.WithDescription("Returns the communication state, MIDI connection and program mode of the amplifier."),
	), s.getState)

	s.mcp.AddTool(mcp.NewTool("oscitronix_get-program",
		mcp.WithDescription("Returns a program of the amplifier as JSON."),
		mcp.WithString("slot", mcp.Required(), mcp.Description("Which program: current, user, preset or ampfx.")),
		mcp.WithNumber("number", mcp.Description("Index for user (0-7), preset (0-59) or ampfx (0-3).")),
	), s.getProgram)

	s.mcp.AddTool(mcp.NewTool("oscitronix_set-param",
		mcp.WithDescription("Changes one parameter of the current program. Values out of range are railed."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("NR_SENS, EFFECT_STATUS, EFFECT_MODEL, AMP, PEDAL1, PEDAL2 or REVERB.")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Parameter identifier inside the domain, see oscitronix_describe-params.")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("New value.")),
	), s.setParam)

	s.mcp.AddTool(mcp.NewTool("oscitronix_set-program-name",
		mcp.WithDescription("Renames the current program. Names are cut to 16 ASCII characters."),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name.")),
	), s.setProgramName)

	s.mcp.AddTool(mcp.NewTool("oscitronix_set-mode",
		mcp.WithDescription("Switches the amplifier program mode, optionally selecting a bank."),
		mcp.WithString("mode", mcp.Required(), mcp.Description("PRESET, USER or MANUAL.")),
		mcp.WithNumber("number", mcp.Description("Bank to select in PRESET (0-59) or USER (0-7) mode.")),
	), s.setMode)

	s.mcp.AddTool(mcp.NewTool("oscitronix_describe-params",
		mcp.WithDescription("Lists the parameters of the current program with their identifiers, ranges and values."),
		mcp.WithString("domain", mcp.Description("Only list this domain.")),
	), s.describeParams)

	if lib != nil {
		s.mcp.AddTool(mcp.NewTool("oscitronix_list-library",
			mcp.WithDescription("Lists the programs saved on disk."),
		), s.listLibrary)
		s.mcp.AddTool(mcp.NewTool("oscitronix_load-program",
			mcp.WithDescription("Loads a program saved on disk into the amplifier's current program."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Program name as listed by oscitronix_list-library.")),
		), s.loadProgram)
		s.mcp.AddTool(mcp.NewTool("oscitronix_save-program",
			mcp.WithDescription("Saves the current program on disk."),
			mcp.WithString("name", mcp.Required(), mcp.Description("File name, at most 16 characters.")),
		), s.saveProgram)
	}
	return s
}

// ServeStdio blocks serving MCP over stdin and stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server")
	return server.ServeStdio(s.mcp)
}

func (s *Server) snapshot(ctx context.Context) (engine.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	return s.runner.Snapshot(ctx)
}

// apply runs c and returns the current program afterwards.
func (s *Server) apply(ctx context.Context, c engine.Command) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	if err := s.runner.Submit(ctx, c); err != nil {
		return nil, fmt.Errorf("engine unavailable: %w", err)
	}
	snap, err := s.runner.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine unavailable: %w", err)
	}
	return jsonResult(snap.Current)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

type state struct {
	Communication string `json:"communication"`
	Midi          string `json:"midi"`
	Mode          string `json:"mode"`
	Index         int    `json:"index"`
	ProgramName   string `json:"program_name"`
	Outstanding   int    `json:"outstanding"`
}

func (s *Server) getState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("Handling get state request")
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(state{
		Communication: snap.Communication.String(),
		Midi:          snap.Midi.String(),
		Mode:          snap.Mode.String(),
		Index:         snap.Index,
		ProgramName:   snap.Current.Name,
		Outstanding:   snap.Outstanding,
	})
}

func (s *Server) getProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slot, err := request.RequireString("slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n := request.GetInt("number", 0)
	s.log.Debug("Handling get program request", "slot", slot, "number", n)

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var count int
	switch strings.ToLower(slot) {
	case "current":
		return jsonResult(snap.Current)
	case "user":
		count = vox.UserBankCount
	case "preset":
		count = vox.PresetCount
	case "ampfx":
		count = vox.AmpFXCount
	default:
		return mcp.NewToolResultErrorf("unknown slot %q", slot), nil
	}
	if n < 0 || n >= count {
		return mcp.NewToolResultErrorf("number must be between 0 and %d", count-1), nil
	}
	switch strings.ToLower(slot) {
	case "user":
		return jsonResult(snap.User[n])
	case "preset":
		return jsonResult(snap.Presets[n])
	}
	data, err := vox.EncodeJSON(snap.AmpFX[n], true)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) setParam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, ok := vox.ParseDomain(name)
	if !ok || d == vox.DomainProgramName {
		return mcp.NewToolResultErrorf("unknown domain %q", name), nil
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := vox.Lookup(&snap.Current, d, id); !ok {
		return mcp.NewToolResultErrorf("no parameter %d in %s", id, d), nil
	}
	s.log.Info("Setting parameter", "domain", d, "id", id, "value", value)
	return s.apply(ctx, engine.SetParamCmd{Domain: d, ID: id, Value: value})
}

func (s *Server) setProgramName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.apply(ctx, engine.SetProgramNameCmd{Name: name})
}

func (s *Server) setMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := vox.ParseMode(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var c engine.Command = engine.SetModeCmd{Mode: mode}
	if n, err := request.RequireInt("number"); err == nil {
		switch mode {
		case vox.ModeUser:
			c = engine.SelectUserBankCmd{Num: n}
		case vox.ModePreset:
			c = engine.SelectPresetCmd{Num: n}
		}
	}
	s.log.Info("Changing mode", "mode", mode)
	if _, err := s.apply(ctx, c); err != nil {
		return nil, err
	}
	return s.getState(ctx, request)
}

type paramDesc struct {
	Domain string `json:"domain"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Unit   string `json:"unit,omitempty"`
	Value  int    `json:"value"`
}

// describe lists every settable parameter of p except the name characters.
func describe(p *vox.Program) []paramDesc {
	var out []paramDesc
	add := func(d vox.Domain, id, value int) {
		info, ok := vox.Lookup(p, d, id)
		if !ok {
			return
		}
		out = append(out, paramDesc{d.String(), id, info.Name, info.Min, info.Max, info.Unit, value})
	}

	add(vox.DomainNoiseGate, 0, p.NoiseGate)
	for slot := vox.SlotAmp; slot < vox.SlotCount; slot++ {
		add(vox.DomainEffectModel, int(slot), p.ModelTag(slot))
		if slot != vox.SlotAmp {
			on := 0
			if p.Active[slot] {
				on = 1
			}
			add(vox.DomainEffectStatus, int(slot), on)
		}
	}
	for id, v := range p.Amp {
		add(vox.DomainAmp, id, v)
	}
	for _, slot := range []vox.Slot{vox.SlotPedal1, vox.SlotPedal2, vox.SlotReverb} {
		d := vox.DomainPedal1 + vox.Domain(slot-vox.SlotPedal1)
		for id, v := range p.SlotValues(slot) {
			add(d, id, v)
		}
	}
	return out
}

func (s *Server) describeParams(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := request.GetString("domain", "")
	var want vox.Domain
	if filter != "" {
		d, ok := vox.ParseDomain(filter)
		if !ok {
			return mcp.NewToolResultErrorf("unknown domain %q", filter), nil
		}
		want = d
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	params := describe(&snap.Current)
	if filter != "" {
		kept := params[:0]
		for _, p := range params {
			if p.Domain == want.String() {
				kept = append(kept, p)
			}
		}
		params = kept
	}
	return jsonResult(params)
}

func (s *Server) listLibrary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.library.List()
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(names)
}

func (s *Server) loadProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.library.Load(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.log.Info("Loading program from library", "name", name)
	return s.apply(ctx, engine.LoadProgramCmd{Program: p})
}

func (s *Server) saveProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.library.Save(name, snap.Current); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %q.", vox.NormalizeName(name))), nil
}
