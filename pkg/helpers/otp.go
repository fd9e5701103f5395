package helpers

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
)

// OTP codes are 6 digits in [OTPMin, OTPMax].
const (
	OTPMin    = 100000
	OTPMax    = 999999
	OTPLength = 6
)

var otpSpan = big.NewInt(OTPMax - OTPMin + 1)

// GenOTPCode draws a uniformly distributed 6-digit code from crypto/rand.
func GenOTPCode() (string, error) {
	return GenOTPCodeFrom(rand.Reader)
}

// GenOTPCodeFrom is GenOTPCode with an explicit entropy source.
func GenOTPCodeFrom(r io.Reader) (string, error) {
	n, err := rand.Int(r, otpSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+OTPMin, 10), nil
}
