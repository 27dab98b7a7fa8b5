package logging

// Standardized structured logging keys shared across components.
const (
	// FieldComponent names the emitting component.
	FieldComponent = "component"
	// FieldItemID carries queue item identifiers.
	FieldItemID = "item_id"
	// FieldStage carries workflow stage names.
	FieldStage = "stage"
	// FieldLane carries workflow lane names.
	FieldLane = "lane"
	// FieldRequester carries the originating requester identity.
	FieldRequester = "requester"
	// FieldCorrelationID carries request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags machine-filterable event categories.
	FieldEventType = "event_type"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind carries the sentinel error classification.
	FieldErrorKind = "error_kind"
	// FieldErrorOperation carries the failing operation label.
	FieldErrorOperation = "error_operation"
	// FieldErrorHint suggests the next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldSearchTier carries the active search tier label.
	FieldSearchTier = "search_tier"
	// FieldSessionToken carries search session tokens.
	FieldSessionToken = "session_token"
	// FieldProgressStage carries the human progress stage label.
	FieldProgressStage = "progress_stage"
	// FieldProgressPercent carries progress completion percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage carries the human progress message.
	FieldProgressMessage = "progress_message"
)
