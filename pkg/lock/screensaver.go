package lock

import (
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
	"strings"
)

// screenSaverService describes a desktop implementation of the screensaver interface.
type screenSaverService struct {
	dest  string
	path  dbus.ObjectPath
	iface string
}

var screenSaverServices = []screenSaverService{
	{"org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver", "org.freedesktop.ScreenSaver"},
	{"org.gnome.ScreenSaver", "/org/gnome/ScreenSaver", "org.gnome.ScreenSaver"},
	{"org.cinnamon.ScreenSaver", "/org/cinnamon/ScreenSaver", "org.cinnamon.ScreenSaver"},
	{"org.mate.ScreenSaver", "/org/mate/ScreenSaver", "org.mate.ScreenSaver"},
}

// NewScreenSaverSource creates a Source that listens for the ActiveChanged signal of the
// screensaver on the session bus.
// The freedesktop, GNOME, Cinnamon and MATE interfaces are all watched, repeated signals for
// the same state are delivered once.
//
// The returned Source also implements StateReader.
func NewScreenSaverSource() (Source, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	result := newDbusSource(conn)
	for _, service := range screenSaverServices {
		result.matches = append(result.matches, []dbus.MatchOption{
			dbus.WithMatchInterface(service.iface),
			dbus.WithMatchMember("ActiveChanged"),
		})
	}
	result.decode = decodeActiveChanged
	result.getLocked = func() (bool, error) {
		var err error
		for _, service := range screenSaverServices {
			var active bool
			e := conn.Object(service.dest, service.path).
				Call(service.iface+".GetActive", 0).
				Store(&active)
			if e == nil {
				return active, nil
			}
			err = errors.Join(err, fmt.Errorf("%s: %w", service.iface, e))
		}

		return false, fmt.Errorf("could not get screensaver state: %w", err)
	}
	result.start()

	return result, nil
}

func decodeActiveChanged(s *dbus.Signal) (bool, bool) {
	iface, member, found := cutLast(s.Name, ".")
	if !found || member != "ActiveChanged" || !isScreenSaverInterface(iface) {
		return false, false
	}

	if len(s.Body) < 1 {
		return false, false
	}

	active, ok := s.Body[0].(bool)
	return active, ok
}

func isScreenSaverInterface(iface string) bool {
	for _, service := range screenSaverServices {
		if service.iface == iface {
			return true
		}
	}

	return false
}

func cutLast(s string, sep string) (before string, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}

	return s[:i], s[i+len(sep):], true
}
