package http

const (
	CodeUnknown          = "UNKNOWN"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeBadRequest       = "BAD_REQUEST"
	CodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	CodeInternal         = "INTERNAL_ERROR"
)
