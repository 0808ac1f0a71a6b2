package messages

import "pixed/internal/document"

type ErrorMsg struct {
	Err error
}

// DocumentChangedMsg is sent for every document notification.
type DocumentChangedMsg struct {
	Change document.Change
}

// TaskDoneMsg reports the end of an AI task started from the inspector.
type TaskDoneMsg struct {
	ID   string
	Kind string
	Err  error
}
