package scenarios

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineplan/core/logger"
)

func TestScenario(t *testing.T) {
	scs, err := LoadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, scs)
	for _, sc := range scs {
		t.Run(sc.Name, func(t *testing.T) {
			out, err := Run(context.Background(), sc, logger.NopLogger{})
			require.NoError(t, err)
			for _, m := range Check(sc, out) {
				t.Error(m)
			}
		})
	}
}

func TestLoadInlinesFixture(t *testing.T) {
	sc, err := Load("two_lines_three_items.yaml")
	require.NoError(t, err)
	assert.Len(t, sc.Lines, 2)
	assert.Len(t, sc.Orders, 3)
	assert.Equal(t, []int64{100, 101, 102}, sc.OrderIDs)
	require.NotNil(t, sc.Expected.Items)
	assert.Equal(t, 3, *sc.Expected.Items)
	assert.False(t, sc.Window.End.IsZero())
}

func TestCheckReportsMismatch(t *testing.T) {
	sc, err := Load("two_lines_three_items.yaml")
	require.NoError(t, err)
	want := 4
	sc.Expected.Items = &want
	out, err := Run(context.Background(), sc, nil)
	require.NoError(t, err)
	assert.Contains(t, Check(sc, out), "items: got 3, want 4")
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
