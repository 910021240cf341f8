package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houston4444/OsciTronix/devices/devicestesting"
	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/vox"
)

type harness struct {
	srv    *httptest.Server
	runner *engine.Runner
	port   *devicestesting.MockMIDIPort
	lib    *library.Library
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		port: devicestesting.NewMockMIDIPort(),
		lib:  library.New(t.TempDir()),
	}
	h.runner = engine.NewRunner(engine.New(engine.WithSender(h.port)), 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.runner.Run(ctx)
	}()
	h.srv = httptest.NewServer(New(h.runner, WithLibrary(h.lib)).Handler())
	t.Cleanup(func() {
		h.srv.Close()
		cancel()
		<-done
	})
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) (int, []byte) {
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeProgram(t *testing.T, data []byte) vox.Program {
	var p vox.Program
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestState(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, status)

	var st stateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, engine.Lost.String(), st.Communication)
	assert.False(t, st.Ok)
	assert.Equal(t, engine.AbsentDevice.String(), st.Midi)
	assert.Equal(t, 0, st.Outstanding)
}

func TestSetParam(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/current/params", `{"domain":"amp","id":0,"value":150}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 100, decodeProgram(t, body).Amp[vox.AmpGain])

	sent := h.port.GetSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, vox.ParameterChangeMsg(vox.DomainAmp, int(vox.AmpGain), 100).Frame(), []byte(sent[0]))

	_, body = h.do(t, http.MethodGet, "/state", "")
	var st stateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 1, st.Outstanding)
	assert.Equal(t, vox.ParameterChange.String(), st.LastSent)
}

func TestSetParamRejects(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		body string
	}{
		{"unknown domain", `{"domain":"FLANGER","id":0,"value":1}`},
		{"unknown id", `{"domain":"AMP","id":40,"value":1}`},
		{"unknown field", `{"domain":"AMP","slot":1}`},
		{"not json", `gain=3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(t, http.MethodPost, "/current/params", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, string(body), `"error"`)
		})
	}
	assert.Empty(t, h.port.GetSentMessages())
}

func TestSetName(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodPut, "/current/name", `{"name":"Clean Twin"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Clean Twin", decodeProgram(t, body).Name)
	assert.Len(t, h.port.GetSentMessages(), vox.NameLength)
}

func TestMode(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/mode", `{"mode":"manual"}`)
	require.Equal(t, http.StatusOK, status)
	var st stateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "MANUAL", st.Mode)

	status, _ = h.do(t, http.MethodPost, "/mode", `{"mode":"tuner"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSlots(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		path   string
		status int
	}{
		{"/banks/0", http.StatusOK},
		{"/banks/7", http.StatusOK},
		{"/banks/8", http.StatusNotFound},
		{"/banks/x", http.StatusNotFound},
		{"/presets/59", http.StatusOK},
		{"/presets/60", http.StatusNotFound},
		{"/ampfx/3", http.StatusOK},
		{"/ampfx/-1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, _ := h.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestSelectAndUpload(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/banks/3/select", "")
	require.Equal(t, http.StatusOK, status)
	var st stateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "USER", st.Mode)
	assert.Equal(t, 3, st.Index)

	status, body = h.do(t, http.MethodPost, "/presets/12/select", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "PRESET", st.Mode)
	assert.Equal(t, 12, st.Index)

	h.do(t, http.MethodPut, "/current/name", `{"name":"Upload"}`)
	status, body = h.do(t, http.MethodPost, "/banks/5/upload", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Upload", decodeProgram(t, body).Name)

	status, _ = h.do(t, http.MethodPost, "/ampfx/2/upload", "")
	require.Equal(t, http.StatusOK, status)
	sent := h.port.GetSentMessages()
	assert.Equal(t, byte(vox.CustomAmpFXDataDump), sent[len(sent)-1][6])
}

func TestSync(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodPost, "/sync", "")
	assert.Equal(t, http.StatusAccepted, status)

	snap, err := h.runner.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.port.GetSentMessages(), len(vox.StartupRequests()))
	assert.Equal(t, len(vox.StartupRequests()), snap.Outstanding)
}

func TestLibrary(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/library", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	h.do(t, http.MethodPost, "/current/params", `{"domain":"NR_SENS","id":0,"value":33}`)
	status, _ = h.do(t, http.MethodPost, "/library/Warm", "")
	require.Equal(t, http.StatusCreated, status)

	_, body = h.do(t, http.MethodGet, "/library", "")
	assert.JSONEq(t, `["Warm"]`, string(body))

	h.do(t, http.MethodPost, "/current/params", `{"domain":"NR_SENS","id":0,"value":5}`)
	status, body = h.do(t, http.MethodPost, "/library/Warm/load", "")
	require.Equal(t, http.StatusOK, status)
	p := decodeProgram(t, body)
	assert.Equal(t, 33, p.NoiseGate)
	assert.Equal(t, "Warm", p.Name)

	status, _ = h.do(t, http.MethodPost, "/library/Missing/load", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = h.do(t, http.MethodPost, "/library/"+strings.Repeat("x", 20), "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLibraryRoutesNeedLibrary(t *testing.T) {
	r := engine.NewRunner(engine.New(), 1)
	srv := httptest.NewServer(New(r).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/library")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
