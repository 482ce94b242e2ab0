package secrets

import (
	"fmt"
	"github.com/godbus/dbus/v5"
	"strings"
)

const (
	dbusDest             = "org.freedesktop.secrets"
	dbusServiceInterface = "org.freedesktop.Secret.Service"
	dbusPath             = "/org/freedesktop/secrets"
)

type Secrets struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() (*Secrets, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Secrets{
		conn: conn,
		obj:  conn.Object(dbusDest, dbusPath),
	}, nil
}

// Lock locks the given objects, e.g. "collection/login" or "aliases/default".
// The given objects are prepended by "/org/freedesktop/secrets/".
// It returns the objects that were locked without requiring a prompt.
func (s *Secrets) Lock(paths []string) ([]dbus.ObjectPath, error) {
	var locked []dbus.ObjectPath
	var prompt dbus.ObjectPath
	err := s.obj.Call(dbusServiceInterface+".Lock", 0, objectPaths(paths)).Store(&locked, &prompt)
	if err != nil {
		return nil, fmt.Errorf("could not lock %s: %w", strings.Join(paths, ", "), err)
	}

	return locked, nil
}

func (s *Secrets) Close() error {
	return s.conn.Close()
}

func objectPaths(paths []string) []dbus.ObjectPath {
	objs := make([]dbus.ObjectPath, len(paths))
	for i, path := range paths {
		objs[i] = dbus.ObjectPath(dbusPath + "/" + strings.TrimPrefix(path, "/"))
	}

	return objs
}
