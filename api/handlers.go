package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/vox"
)

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	Communication string `json:"communication"`
	Ok            bool   `json:"ok"`
	Midi          string `json:"midi"`
	Mode          string `json:"mode"`
	Index         int    `json:"index"`
	Outstanding   int    `json:"outstanding"`
	LastSent      string `json:"last_sent"`
}

func stateOf(snap engine.Snapshot) stateResponse {
	return stateResponse{
		Communication: snap.Communication.String(),
		Ok:            snap.Communication.IsOk(),
		Midi:          snap.Midi.String(),
		Mode:          snap.Mode.String(),
		Index:         snap.Index,
		Outstanding:   snap.Outstanding,
		LastSent:      snap.LastSent.String(),
	}
}

type paramRequest struct {
	Domain string `json:"domain"`
	ID     int    `json:"id"`
	Value  int    `json:"value"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// slotNum parses the {n} URL parameter and checks it against count.
func (s *Server) slotNum(w http.ResponseWriter, r *http.Request, count int) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 || n >= count {
		s.writeError(w, http.StatusNotFound, errors.New("no such slot"))
		return 0, false
	}
	return n, true
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (engine.Snapshot, bool) {
	snap, err := s.runner.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return engine.Snapshot{}, false
	}
	return snap, true
}

// apply submits c and answers with the state after it ran.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, c engine.Command, respond func(engine.Snapshot) any) {
	if err := s.runner.Submit(r.Context(), c); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, respond(snap))
}

func currentOf(snap engine.Snapshot) any { return snap.Current }

func stateAny(snap engine.Snapshot) any { return stateOf(snap) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, http.StatusOK, stateOf(snap))
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Submit(r.Context(), engine.StartCommunicationCmd{}); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !s.decode(w, r, &req) {
		return
	}
	mode, err := vox.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, r, engine.SetModeCmd{Mode: mode}, stateAny)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, http.StatusOK, snap.Current)
	}
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req paramRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, ok := vox.ParseDomain(req.Domain)
	if !ok {
		s.writeError(w, http.StatusBadRequest, &vox.FieldError{Field: "domain", Value: req.Domain})
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if _, ok := vox.Lookup(&snap.Current, d, req.ID); !ok {
		s.writeError(w, http.StatusBadRequest, &vox.FieldError{Field: "id", Value: req.ID})
		return
	}
	s.apply(w, r, engine.SetParamCmd{Domain: d, ID: req.ID, Value: req.Value}, currentOf)
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, engine.SetProgramNameCmd{Name: req.Name}, currentOf)
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slotNum(w, r, vox.UserBankCount)
	if !ok {
		return
	}
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, http.StatusOK, snap.User[n])
	}
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slotNum(w, r, vox.PresetCount)
	if !ok {
		return
	}
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, http.StatusOK, snap.Presets[n])
	}
}

func (s *Server) handleAmpFX(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slotNum(w, r, vox.AmpFXCount)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	data, err := vox.EncodeJSON(snap.AmpFX[n], true)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleSelectBank(w http.ResponseWriter, r *http.Request) {
	if n, ok := s.slotNum(w, r, vox.UserBankCount); ok {
		s.apply(w, r, engine.SelectUserBankCmd{Num: n}, stateAny)
	}
}

func (s *Server) handleSelectPreset(w http.ResponseWriter, r *http.Request) {
	if n, ok := s.slotNum(w, r, vox.PresetCount); ok {
		s.apply(w, r, engine.SelectPresetCmd{Num: n}, stateAny)
	}
}

func (s *Server) handleUploadBank(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slotNum(w, r, vox.UserBankCount)
	if !ok {
		return
	}
	s.apply(w, r, engine.UploadUserProgramCmd{Num: n}, func(snap engine.Snapshot) any { return snap.User[n] })
}

func (s *Server) handleUploadAmpFX(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slotNum(w, r, vox.AmpFXCount)
	if !ok {
		return
	}
	s.apply(w, r, engine.UploadAmpFXCmd{Num: n}, stateAny)
}

func (s *Server) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	names, err := s.library.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleLibrarySave(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.library.Save(name, snap.Current); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, vox.ErrInvalidField) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLibraryLoad(w http.ResponseWriter, r *http.Request) {
	p, err := s.library.Load(chi.URLParam(r, "name"))
	switch {
	case err == nil:
	case errors.Is(err, vox.ErrInvalidField):
		s.writeError(w, http.StatusBadRequest, err)
		return
	default:
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.apply(w, r, engine.LoadProgramCmd{Program: p}, currentOf)
}
