package tui

const (
	TopicConsoleEvents = "orca.events"
	TopicUIMessages    = "orca.ui.msgs"
	TopicUIActions     = "orca.ui.actions"
)

const (
	DomainTypeLogEntry     = "console.entry"
	DomainTypeStatusChange = "console.status"
	DomainTypeSessionEnded = "console.session.ended"
	DomainTypeControl      = "console.control"
	DomainTypeActionLog    = "action.log"
)

const (
	UITypeLogEntry      = "tui.console.entry"
	UITypeStatusChange  = "tui.console.status"
	UITypeSessionEnded  = "tui.console.ended"
	UITypeControl       = "tui.console.control"
	UITypeActionRequest = "tui.action.request"
)
