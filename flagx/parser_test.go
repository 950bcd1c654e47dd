package flagx

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitsOptions struct {
	GroupID uint64        `flag:"group,g" usage:"group id" required:"true"`
	At      string        `flag:"at" usage:"evaluation time"`
	Workers int           `flag:"workers" default:"2"`
	DryRun  bool          `flag:"dry-run"`
	Timeout time.Duration `flag:"timeout" default:"30s"`
	Kinds   []string      `flag:"kind"`
}

func TestBindAndParse(t *testing.T) {
	cmd := &cobra.Command{Use: "limits"}
	var opts limitsOptions
	require.NoError(t, BindFlags(cmd, &opts))

	require.NoError(t, cmd.ParseFlags([]string{"-g", "42", "--kind", "task", "--kind", "workflow", "--dry-run"}))
	require.NoError(t, ParseFlags(cmd, &opts))

	assert.Equal(t, uint64(42), opts.GroupID)
	assert.Equal(t, "", opts.At)
	assert.Equal(t, 2, opts.Workers)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, []string{"task", "workflow"}, opts.Kinds)
}

func TestBindFlags_Required(t *testing.T) {
	cmd := &cobra.Command{Use: "limits", RunE: func(*cobra.Command, []string) error { return nil }}
	var opts limitsOptions
	require.NoError(t, BindFlags(cmd, &opts))

	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group")
}

func TestBindFlags_BadDefault(t *testing.T) {
	type bad struct {
		Workers int `flag:"workers" default:"many"`
	}
	assert.Error(t, BindFlags(&cobra.Command{}, &bad{}))
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	type bad struct {
		Ratio float32 `flag:"ratio"`
	}
	err := BindFlags(&cobra.Command{}, &bad{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported field type")
}

func TestParseFlags_NotRegistered(t *testing.T) {
	var opts limitsOptions
	assert.Error(t, ParseFlags(&cobra.Command{}, &opts))
}

func TestParseFlags_NonPointer(t *testing.T) {
	err := ParseFlags(&cobra.Command{}, limitsOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pointer to struct")

	var s string
	assert.Error(t, BindFlags(&cobra.Command{}, &s))
}
