// Package invalidation carries spatial reference registry changes between
// server instances so each can drop its parsed copy of a definition.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

const (
	OpRegister = "register"
	OpDelete   = "delete"
)

type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	WKID    int       `json:"wkid"`
	TS      time.Time `json:"ts"`
	// Source names the instance that made the change.
	Source string `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case OpRegister, OpDelete:
	default:
		return fmt.Errorf("op must be register|delete")
	}
	if e.WKID <= 0 {
		return fmt.Errorf("wkid must be positive")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if strings.ContainsAny(e.Source, "\r\n") {
		return fmt.Errorf("source must be a single line")
	}
	return nil
}
