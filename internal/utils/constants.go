package utils

// HTTP Header Constants
const (
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderResponseTime  = "X-Response-Time"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"

	// CORS Headers
	HeaderAccessControlAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods  = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAccessControlExposeHeaders = "Access-Control-Expose-Headers"
)

// Content Type Constants
const (
	ContentTypeJSON = "application/json"
)

// Service Values
const (
	ServiceUserAgent = "Selection-Relay/1.0"
	UserAgentPrefix  = "Selection-Relay"
)

// CORS Values
const (
	CORSAllowOriginAll   = "*"
	CORSAllowMethodsAll  = "POST, GET, OPTIONS"
	CORSAllowHeadersStd  = "Accept, Content-Type, Content-Length, X-Request-ID, X-Correlation-ID"
	CORSExposeHeadersStd = "X-Request-ID, X-Correlation-ID, X-Response-Time"
)
