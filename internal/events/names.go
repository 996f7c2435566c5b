package events

// Event names emitted by the API handlers and the QA engine.
const (
	WidgetCreated    = "bi.widget.created"
	WidgetUpdated    = "bi.widget.updated"
	WidgetDeleted    = "bi.widget.deleted"
	DashboardCreated = "bi.dashboard.created"
	DashboardUpdated = "bi.dashboard.updated"
	DashboardDeleted = "bi.dashboard.deleted"
	LayoutSaved      = "bi.dashboard.layout_saved"
	AlertTriggered   = "bi.dbqa.alert.triggered"
	AlertResolved    = "bi.dbqa.alert.resolved"
	AlertSnoozed     = "bi.dbqa.alert.snoozed"
)
