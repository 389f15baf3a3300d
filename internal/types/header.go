package types

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"

	// Moyasar webhook delivery headers
	HeaderMoyasarSignature = "X-Moyasar-Signature"
	HeaderMoyasarTimestamp = "X-Moyasar-Timestamp"
)
