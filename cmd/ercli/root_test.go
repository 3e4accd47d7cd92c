package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"migrate", "force"},
		{"import"},
		{"declare"},
		{"approve"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRootCommand_ValidatesArgsBeforeLoadingConfig(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"declare"}, "accepts 1 arg(s), received 0"},
		{[]string{"approve", "a", "b"}, "accepts 1 arg(s), received 2"},
		{[]string{"migrate", "down", "1", "2"}, "accepts at most 1 arg(s), received 2"},
	}
	for _, tt := range tests {
		root := newRootCommand()
		root.SetArgs(tt.args)
		root.SetOut(&bytes.Buffer{})
		err := root.Execute()
		require.Error(t, err, tt.args)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestDeclareCommand_CorrectionsFlag(t *testing.T) {
	cmd := newDeclareCommand()

	f := cmd.Flags().Lookup("corrections")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}
