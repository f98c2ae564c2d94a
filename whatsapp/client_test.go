package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient("", "", "").Enabled())
	assert.False(t, NewClient("sid", "", "whatsapp:+1555").Enabled())
	assert.True(t, NewClient("sid", "token", "whatsapp:+1555").Enabled())
}

func TestDisabledClientDropsSends(t *testing.T) {
	c := NewClient("", "", "")
	assert.NoError(t, c.Send("whatsapp:+5691111", []string{"hola"}))
}
