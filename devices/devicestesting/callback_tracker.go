package devicestesting

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// CallbackTracker counts callback invocations and remembers their arguments.
type CallbackTracker struct {
	mu    sync.Mutex
	calls int
	args  []any
	t     *testing.T
}

func NewCallbackTracker(t *testing.T) *CallbackTracker {
	return &CallbackTracker{
		t:    t,
		args: make([]any, 0),
	}
}

// WrapCallback wraps a callback function to track its invocations.
// The wrapped function has the same signature as the original; callback may be nil.
func WrapCallback[T any](ct *CallbackTracker, callback func(T) error) func(T) error {
	return func(arg T) error {
		ct.mu.Lock()
		ct.calls++
		ct.args = append(ct.args, arg)
		ct.mu.Unlock()

		if callback != nil {
			return callback(arg)
		}
		return nil
	}
}

func (ct *CallbackTracker) Calls() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.calls
}

// AssertCalled asserts that the callback was called exactly n times
func (ct *CallbackTracker) AssertCalled(expectedCalls int, msg ...any) {
	ct.t.Helper()
	assert.Equal(ct.t, expectedCalls, ct.Calls(), msg...)
}

func (ct *CallbackTracker) AssertCalledOnce(msg ...any) {
	ct.t.Helper()
	ct.AssertCalled(1, msg...)
}

func (ct *CallbackTracker) AssertNotCalled(msg ...any) {
	ct.t.Helper()
	ct.AssertCalled(0, msg...)
}

// AssertEventuallyCalled waits up to timeout for n calls, for callbacks run on another
// goroutine.
func (ct *CallbackTracker) AssertEventuallyCalled(n int, timeout time.Duration, msg ...any) {
	ct.t.Helper()
	assert.Eventually(ct.t, func() bool { return ct.Calls() == n }, timeout, time.Millisecond, msg...)
}

// LastArg returns the argument of the last invocation, or nil if never called.
func (ct *CallbackTracker) LastArg() any {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if len(ct.args) == 0 {
		return nil
	}
	return ct.args[len(ct.args)-1]
}

// Reset resets the call counter and args history
func (ct *CallbackTracker) Reset() {
	ct.mu.Lock()
	ct.calls = 0
	ct.args = make([]any, 0)
	ct.mu.Unlock()
}
