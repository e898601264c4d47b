package cat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfiguration marks invalid attempt settings. An attempt must never
	// start with them.
	ErrConfiguration = errors.New("cat: invalid attempt configuration")
	// ErrInvalidItem marks an item the engine cannot score: outside the level
	// bounds, unknown to the pool, or already answered.
	ErrInvalidItem = errors.New("cat: invalid item")
	// ErrPoolExhausted is returned by the selector when no eligible item is
	// left. Sessions treat it as a stopping condition.
	ErrPoolExhausted = errors.New("cat: question pool exhausted")
	// ErrSessionClosed is returned when a completed session is fed a response.
	ErrSessionClosed = errors.New("cat: session closed")
	// ErrInvalidState is returned on any other state machine misuse.
	ErrInvalidState = errors.New("cat: invalid session state")
)

// ConfigError lists every offending setting, keyed by setting name.
type ConfigError struct {
	Fields map[string]string
}

func (e *ConfigError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ConfigError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrConfiguration.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// InvalidItemError describes why an item was rejected.
type InvalidItemError struct {
	ItemID int64
	Level  int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("%s %d (level %d): %s", ErrInvalidItem.Error(), e.ItemID, e.Level, e.Reason)
}

func (e *InvalidItemError) Is(target error) bool { return target == ErrInvalidItem }
