package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const otpCodeLength = 6

var otpCodeSpace = big.NewInt(1_000_000)

// GenerateOTPCode draws a 6-digit code uniformly from 000000-999999 using
// crypto/rand, with leading zeros preserved.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpCodeSpace)
	if err != nil {
		return "", err
	}
	code := n.String()
	if len(code) < otpCodeLength {
		code = strings.Repeat("0", otpCodeLength-len(code)) + code
	}
	return code, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
