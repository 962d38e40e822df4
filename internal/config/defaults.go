package config

import "time"

const (
	// Server
	DefaultAddress = ":5000"

	// Auth
	DefaultTokenTTL = 7 * 24 * time.Hour

	// OTP
	DefaultOTPTTL    = 5 * time.Minute
	DefaultOTPLength = 6

	// Realtime
	DefaultSendBuffer = 256

	// Redis
	DefaultRedisAddr = "localhost:6379"

	DefaultLang = "en"
)

// DefaultAllowedOrigins are the dev frontends permitted to open /ws and call the API.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}
