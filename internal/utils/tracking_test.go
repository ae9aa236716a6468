package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateTrackingNumber(t *testing.T) {
	first, err := GenerateTrackingNumber()
	require.NoError(t, err)

	parts := strings.SplitN(first, "-", 3)
	require.Len(t, parts, 3)
	require.Equal(t, "ACH", parts[0])
	require.Len(t, parts[2], 6)
	for _, r := range parts[2] {
		require.Contains(t, trackingAlphabet, string(r))
	}

	second, err := GenerateTrackingNumber()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
