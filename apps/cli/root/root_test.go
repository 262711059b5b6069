package root

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"auth", "token", "session"},
		{"auth", "token", "superadmin"},
		{"bootstrap", "schema"},
		{"bootstrap", "demo"},
		{"superadmin", "create"},
		{"tenant", "create"},
		{"tenant", "deactivate"},
		{"tenant", "add-user"},
	}

	for _, p := range paths {
		cmd, rest, err := Root().Find(p)
		require.NoError(t, err, p)
		require.Empty(t, rest, p)
		require.Equal(t, p[len(p)-1], cmd.Name())
	}
}
