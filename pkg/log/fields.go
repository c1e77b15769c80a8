package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Objects
	FieldBucket    = "bucket"
	FieldKey       = "key"
	FieldDstBucket = "dst_bucket"
	FieldDstKey    = "dst_key"
	FieldEventName = "event_name"
	FieldFileID    = "file_id"
	FieldStage     = "stage"
	FieldResult    = "result"
	FieldSize      = "size"
)
