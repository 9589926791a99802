package logger

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID  = "user_id"
	FieldIsAdmin = "is_admin"

	// Engagement
	FieldPostID      = "post_id"
	FieldCommentID   = "comment_id"
	FieldRecipientID = "recipient_id"
	FieldActorID     = "actor_id"
	FieldEventType   = "event_type"

	FieldService = "service"
)
