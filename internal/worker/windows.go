// internal/worker/windows.go
package worker

// WindowMessage is the structured message the worker posts to an open
// application window. The worker cannot navigate a window it does not own;
// the application listens for Type "notificationClicked" and performs the
// navigation itself.
type WindowMessage struct {
	Type string                 `json:"type"`
	URL  string                 `json:"url,omitempty"`
	Data map[string]interface{} `json:"data,omitempty"`
}

const MessageTypeNotificationClicked = "notificationClicked"

// Window is one open application window under this origin.
type Window interface {
	Post(msg WindowMessage) error
	Focus() error
}

// Opener creates a new window when none is open to deliver a click to.
type Opener interface {
	OpenWindow(url string) error
}

// Windows is the worker's view of the open application windows. The worker
// and the windows share no memory; the registry only brokers message
// passing.
type Windows interface {
	// List returns every open window under this origin.
	List() []Window
	// Claim takes control of all open windows so this worker version
	// handles their in-flight pages immediately.
	Claim()
}
