package oscbridge

import (
	"strings"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// HandlerFunc receives a message and the address segments captured by "@" wildcards.
type HandlerFunc func(msg *osc.Message, captures []string)

type namedHandler struct {
	path    string
	handler HandlerFunc
}

// Dispatcher is an osc.Dispatcher routing on address patterns.
type Dispatcher struct {
	handlers []namedHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: []namedHandler{}}
}

// AddMsgHandler registers handler for path. Each "@" segment of path matches any single
// segment and is captured; a trailing "*" matches any remaining segments.
func (s *Dispatcher) AddMsgHandler(path string, handler HandlerFunc) {
	s.handlers = append(s.handlers, namedHandler{path, handler})
}

// matchAddr checks if messageAddr matches the path pattern and returns the captured
// segments.
func matchAddr(path, messageAddr string) (bool, []string) {
	pathSegs := strings.Split(path, "/")
	addrSegs := strings.Split(messageAddr, "/")

	matchLen := len(pathSegs)
	if pathSegs[len(pathSegs)-1] == "*" {
		matchLen--
		if len(addrSegs) < matchLen {
			return false, nil
		}
	} else if len(pathSegs) != len(addrSegs) {
		return false, nil
	}

	var captures []string
	for i := 0; i < matchLen; i++ {
		switch p := pathSegs[i]; p {
		case "@":
			captures = append(captures, addrSegs[i])
		case addrSegs[i]:
		default:
			return false, nil
		}
	}
	return true, captures
}

func (s *Dispatcher) dispatchMessage(msg *osc.Message) bool {
	matched := false
	for _, h := range s.handlers {
		if ok, captures := matchAddr(h.path, msg.Address); ok {
			matched = true
			h.handler(msg, captures)
		}
	}
	return matched
}

// Dispatch implements osc.Dispatcher. Bundles are delayed until their time tag.
func (s *Dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		if !s.dispatchMessage(p) {
			oscInLog.Debug("No handler for OSC message", "addr", p.Address)
		}

	case *osc.Bundle:
		run := func() {
			for _, m := range p.Messages {
				s.dispatchMessage(m)
			}
			for _, b := range p.Bundles {
				s.Dispatch(b)
			}
		}
		if wait := p.Timetag.ExpiresIn(); wait > 0 {
			time.AfterFunc(wait, run)
			return
		}
		run()
	}
}
