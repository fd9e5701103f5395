package application

import "expvar"

// Counters published on /debug/vars, keyed by OTP purpose.
var (
	otpIssued          = expvar.NewMap("otp_issued")
	otpAccepted        = expvar.NewMap("otp_accepted")
	otpRejected        = expvar.NewMap("otp_rejected")
	otpDeliveryFailure = expvar.NewMap("otp_delivery_failures")
)
