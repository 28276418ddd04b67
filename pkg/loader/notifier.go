package loader

// Notifier receives presenter notifications from a Loader.
//
// terminal is true for the informational end-of-list signal and false for
// recoverable failures. How either is shown is up to the presenter.
type Notifier interface {
	Notify(message string, terminal bool)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, terminal bool)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string, terminal bool) {
	f(message, terminal)
}
