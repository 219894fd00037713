package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		arg  string
		doc  string
		line int
	}{
		{"notes/deploy.md", "notes/deploy.md", 0},
		{"notes/deploy.md:12", "notes/deploy.md", 12},
		{"C:notes.md", "C:notes.md", 0},
		{"a:b:3", "a:b", 3},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			doc, line, err := parseTarget(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.doc, doc)
			assert.Equal(t, tt.line, line)
		})
	}
}

func TestParseTarget_Errors(t *testing.T) {
	_, _, err := parseTarget(":4")
	assert.Error(t, err)

	_, _, err = parseTarget("deploy.md:-1")
	assert.Error(t, err)
}

func TestLoadSettings_Overrides(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("dir", "", "")
	cmd.Flags().String("store", "", "")
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.NoError(t, cmd.Flags().Set("dir", "vault"))
	require.NoError(t, cmd.Flags().Set("store", "memory"))

	s, err := loadSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, "vault", s.Documents.Root)
	assert.Equal(t, "memory", s.Store.Backend)

	require.NoError(t, cmd.Flags().Set("store", "etcd"))
	_, err = loadSettings(cmd)
	assert.Error(t, err)
}
