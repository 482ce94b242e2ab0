// Package secrets allows locking collections of the [org.freedesktop.Secret] service.
// Programs that provide this API include Gnome Keyring, KDE Wallet, and keepassxc.
//
// [org.freedesktop.Secret]: https://specifications.freedesktop.org/secret-service-spec/latest/
package secrets
