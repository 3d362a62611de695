// README: User-facing toast notifications (breaker warnings, sampled errors).
package notify

import "log"

// Level indicates toast severity on the dashboard.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notifier delivers a toast to the user. Implementations must be safe for
// concurrent use; delivery is best-effort.
type Notifier interface {
	Notify(level Level, title, body string)
}

// LogNotifier writes toasts to the process log. It is the fallback when no
// dashboard transport is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(level Level, title, body string) {
	log.Printf("notify [%s] %s: %s", level, title, body)
}
