package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// GenerateOTP creates a numeric OTP of specified length
func GenerateOTP(length int) string {
	if length <= 0 {
		length = 6
	}

	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			n = big.NewInt(int64(time.Now().UnixNano() % 10))
		}
		sb.WriteString(n.String())
	}

	return sb.String()
}

// GenerateReceipt builds the merchant receipt sent with a payment order.
// Format: APPT-YYYYMMDD-<first 8 of appointment id>
func GenerateReceipt(appointmentID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("APPT-%s-%s", now.Format("20060102"), appointmentID.String()[:8])
}
