package testutil

import "sync"

// Notification is one recorded presenter notification.
type Notification struct {
	Message  string
	Terminal bool
}

// RecordingNotifier records every notification it receives.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

// Notify implements loader.Notifier.
func (n *RecordingNotifier) Notify(message string, terminal bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, Notification{Message: message, Terminal: terminal})
}

// Notifications returns a copy of the recorded notifications.
func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// Count returns how many notifications carried message.
func (n *RecordingNotifier) Count(message string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, note := range n.notifications {
		if note.Message == message {
			count++
		}
	}
	return count
}
