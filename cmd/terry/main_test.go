package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCmdWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["poll"])
	require.True(t, names["dred"])
	require.True(t, names["load"])

	dredNames := make(map[string]bool)
	for _, c := range dredCmd.Commands() {
		dredNames[c.Name()] = true
	}
	require.True(t, dredNames["overdeletion"])
	require.True(t, dredNames["rederivation"])
}

func TestRootCmdPersistentFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("statement-timeout"))
}
