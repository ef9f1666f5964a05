package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCmdRequiresTableFlag(t *testing.T) {
	f := loadCmd.Flags().Lookup("table")
	require.NotNil(t, f)

	format := loadCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	require.Equal(t, "whitespace", format.DefValue)
}
