// Package lock provides notifications of screen lock and unlock events.
//
// Two D-Bus implementations are available:
//   - systemd-logind using the LockedHint property of the session, [org.freedesktop.login1].
//   - The screensaver interface of the desktop session, [org.freedesktop.ScreenSaver], as
//     implemented by KDE, GNOME, Cinnamon and MATE.
//
// ManualSource delivers events that are emitted by the program itself.
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
// [org.freedesktop.ScreenSaver]: https://specifications.freedesktop.org/idle-inhibit-spec/latest/
package lock
