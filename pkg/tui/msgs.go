package tui

type LogEntryMsg struct {
	Entry LogEntry
}

type StatusChangeMsg struct {
	Status StatusChange
}

type SessionEndedMsg struct {
	Ended SessionEnded
}

type ControlMsg struct {
	Control ControlState
}

type ActionRequestMsg struct {
	Request ActionRequest
}
