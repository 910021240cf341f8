package devices

import (
	"fmt"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
)

// OscClient is the sending half of an OSC peer. *osc.Client satisfies it.
type OscClient interface {
	Send(packet osc.Packet) error
}

func arg(msg *osc.Message, i int) (any, error) {
	if i < 0 || i >= len(msg.Arguments) {
		return nil, fmt.Errorf("%s: missing argument %d", msg.Address, i)
	}
	return msg.Arguments[i], nil
}

// IntArg returns argument i of msg as an int.
//
// Floats are truncated and strings are parsed, since OSC senders disagree on how to
// encode numbers.
func IntArg(msg *osc.Message, i int) (int, error) {
	val, err := arg(msg, i)
	if err != nil {
		return 0, err
	}
	switch val := val.(type) {
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case int:
		return val, nil
	case float32:
		return int(val), nil
	case float64:
		return int(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: argument %d: %w", msg.Address, i, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: argument %d has type %T, want int", msg.Address, i, val)
	}
}

// FloatArg returns argument i of msg as a float64.
func FloatArg(msg *osc.Message, i int) (float64, error) {
	val, err := arg(msg, i)
	if err != nil {
		return 0, err
	}
	switch val := val.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: argument %d: %w", msg.Address, i, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s: argument %d has type %T, want float", msg.Address, i, val)
	}
}

// StringArg returns argument i of msg as a string. Numbers are formatted.
func StringArg(msg *osc.Message, i int) (string, error) {
	val, err := arg(msg, i)
	if err != nil {
		return "", err
	}
	switch val := val.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int32, int64, int:
		return fmt.Sprintf("%d", val), nil
	case float32, float64:
		return fmt.Sprintf("%f", val), nil
	default:
		return "", fmt.Errorf("%s: argument %d has type %T, want string", msg.Address, i, val)
	}
}

// BoolArg returns argument i of msg as a bool. Positive numbers and "true" are true.
func BoolArg(msg *osc.Message, i int) (bool, error) {
	val, err := arg(msg, i)
	if err != nil {
		return false, err
	}
	switch val := val.(type) {
	case bool:
		return val, nil
	case int32:
		return val > 0, nil
	case int64:
		return val > 0, nil
	case int:
		return val > 0, nil
	case float32:
		return val > 0, nil
	case float64:
		return val > 0, nil
	case string:
		return val == "true", nil
	default:
		return false, fmt.Errorf("%s: argument %d has type %T, want bool", msg.Address, i, val)
	}
}
