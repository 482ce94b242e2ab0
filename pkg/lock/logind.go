package lock

import (
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
)

const (
	logindDest             = "org.freedesktop.login1"
	logindPath             = "/org/freedesktop/login1"
	logindSessionInterface = "org.freedesktop.login1.Session"
	propertiesInterface    = "org.freedesktop.DBus.Properties"
)

// NewLogindSource creates and initializes a D-Bus [org.freedesktop.login1] implementation of the
// Source interface for the given session.
// Lock state changes are read from the LockedHint property of the session which is set by the
// screen locker.
//
// sessionId is the ID of the session. Usually set to the XDG_SESSION_ID env var.
//
// The returned Source also implements StateReader.
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
func NewLogindSource(sessionId string) (Source, error) {
	if sessionId == "" {
		return nil, errors.New("sessionId is empty")
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	sessionObject, err := findSession(conn, sessionId)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	result := newDbusSource(conn)
	result.matches = [][]dbus.MatchOption{{
		dbus.WithMatchObjectPath(sessionObject.Path()),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchSender(logindDest),
		dbus.WithMatchMember("PropertiesChanged"),
	}}
	result.decode = func(s *dbus.Signal) (bool, bool) {
		if s.Path != sessionObject.Path() {
			return false, false
		}
		return decodeLockedHint(s)
	}
	result.getLocked = func() (bool, error) {
		variant, err := sessionObject.GetProperty(logindSessionInterface + ".LockedHint")
		if err != nil {
			return false, fmt.Errorf("could not get locked hint: %w", err)
		}

		lockedHint, ok := variant.Value().(bool)
		if !ok {
			return false, fmt.Errorf("LockedHint property result is not a boolean")
		}

		return lockedHint, nil
	}
	result.start()

	return result, nil
}

func findSession(conn *dbus.Conn, sessionId string) (dbus.BusObject, error) {
	var sessions []interface{}
	err := conn.Object(logindDest, logindPath).
		Call("org.freedesktop.login1.Manager.ListSessions", 0).
		Store(&sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	for i, sessionInt := range sessions {
		session, ok := sessionInt.([]interface{})
		if !ok || len(session) < 5 {
			return nil, fmt.Errorf("session %d is not a session tuple: %+v", i, sessionInt)
		}

		currentSessionId, ok := session[0].(string)
		if !ok {
			return nil, fmt.Errorf("session %d[0] is not a string: %+v", i, session[0])
		}

		if currentSessionId == sessionId {
			sessionPath, ok := session[4].(dbus.ObjectPath)
			if !ok {
				return nil, fmt.Errorf("session %d[4] is not an ObjectPath: %+v", i, session[4])
			}

			return conn.Object(logindDest, sessionPath), nil
		}
	}

	return nil, fmt.Errorf("failed to find session object for session %q", sessionId)
}

// decodeLockedHint extracts LockedHint from a PropertiesChanged signal of a logind session.
func decodeLockedHint(s *dbus.Signal) (bool, bool) {
	if s.Name != propertiesInterface+".PropertiesChanged" || len(s.Body) < 2 {
		return false, false
	}

	iface, ok := s.Body[0].(string)
	if !ok || iface != logindSessionInterface {
		return false, false
	}

	changedProperties, ok := s.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false, false
	}

	lockedHintProperty, hasLockedHint := changedProperties["LockedHint"]
	if !hasLockedHint {
		return false, false
	}

	isLocked, ok := lockedHintProperty.Value().(bool)
	return isLocked, ok
}
