package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	out := redact([]interface{}{"member_id", "m1", "contact", "138-0000", "dangling"})
	assert.Equal(t, []interface{}{"member_id", "m1", "contact", "[redacted]", "dangling"}, out)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", "v")
	l.Sync()
}
