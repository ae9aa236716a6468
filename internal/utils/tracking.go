package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTrackingNumber returns a delivery tracking code of the form
// ACH-<unix millis>-<6 random uppercase chars>.
func GenerateTrackingNumber() (string, error) {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = trackingAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ACH-%d-%s", time.Now().UnixMilli(), suffix), nil
}
