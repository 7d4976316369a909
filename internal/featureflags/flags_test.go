package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	t.Setenv("FLAG_SIGNUP_ROLE", "Yes")
	assert.True(t, Enabled(SignupRole))

	t.Setenv("FLAG_SIGNUP_ROLE", "0")
	assert.False(t, Enabled(SignupRole))
}

func TestSnapshot(t *testing.T) {
	t.Setenv("FLAG_SIGNUP_ROLE", "on")
	s := Snapshot(SignupRole)
	t.Setenv("FLAG_SIGNUP_ROLE", "off")

	assert.True(t, s.Enabled(SignupRole), "snapshot is taken once")
	assert.False(t, s.Enabled("unknown"))
}
