package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_RequiresDSN(t *testing.T) {
	err := Run("", "up")
	require.Error(t, err)
}

func TestRun_RejectsUnknownDirection(t *testing.T) {
	err := Run("postgres://localhost/storefront", "sideways")
	require.ErrorContains(t, err, "direction must be up or down")
}
