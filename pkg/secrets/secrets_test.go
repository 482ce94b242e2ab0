package secrets

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestObjectPaths(t *testing.T) {
	got := objectPaths([]string{"collection/login", "/aliases/default"})

	assert.Equal(t, []dbus.ObjectPath{
		"/org/freedesktop/secrets/collection/login",
		"/org/freedesktop/secrets/aliases/default",
	}, got)
}
