package inhibit

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func newTestInhibitor() *Inhibitor {
	return &Inhibitor{
		login1:              &dbus.Object{},
		prepareForSleepSubs: make(map[chan<- bool]struct{}),
	}
}

func TestJoinWhat(t *testing.T) {
	assert.Equal(t, "sleep", joinWhat([]What{WhatSleep}))
	assert.Equal(t, "sleep:shutdown:idle", joinWhat([]What{WhatSleep, WhatShutdown, WhatIdle}))
}

func TestHandleIncomingSignal_PrepareForSleep(t *testing.T) {
	i := newTestInhibitor()
	c := make(chan bool, 2)
	i.prepareForSleepSubs[c] = struct{}{}

	i.handleIncomingSignal(&dbus.Signal{
		Path: i.login1.Path(),
		Name: "org.freedesktop.login1.Manager.PrepareForSleep",
		Body: []interface{}{true},
	})
	i.handleIncomingSignal(&dbus.Signal{
		Path: i.login1.Path(),
		Name: "org.freedesktop.login1.Manager.PrepareForShutdown",
		Body: []interface{}{true},
	})
	i.handleIncomingSignal(&dbus.Signal{
		Path: i.login1.Path(),
		Name: "org.freedesktop.login1.Manager.PrepareForSleep",
		Body: []interface{}{"not a bool"},
	})
	i.handleIncomingSignal(nil)

	if assert.Len(t, c, 1) {
		assert.True(t, <-c)
	}
}

func TestInhibit_RequiresWhat(t *testing.T) {
	i := newTestInhibitor()

	_, err := i.Inhibit("lockwatch", "test", ModeDelay)
	assert.Error(t, err)
}
