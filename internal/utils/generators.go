package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateTicketNumber issues a fresh TKT-<timestamp>-<random> number.
// Numbers are never reused: a rebooking after cancellation gets a new one.
func GenerateTicketNumber() string {
	timestamp := time.Now().UnixMilli()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("TKT-%d-%04d", timestamp, randomNum.Int64())
}
