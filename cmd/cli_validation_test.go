package cmd

import (
	"strings"
	"testing"

	"github.com/brk3/habitboard/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAdd_NameTooLong(t *testing.T) {
	cfgFile := newTestAPI(t)
	_, err := run(t, cfgFile, "add", strings.Repeat("x", 65))
	require.ErrorContains(t, err, "bad habit name")
}

func TestAdd_BadFrequency(t *testing.T) {
	cfgFile := newTestAPI(t)
	_, err := run(t, cfgFile, "add", "guitar", "--frequency", "every other day")
	require.ErrorContains(t, err, "bad habit frequency")
}

func TestDone_Missing(t *testing.T) {
	cfgFile := newTestAPI(t)
	_, err := run(t, cfgFile, "done", "nope", "--date", "2025-01-01")
	require.ErrorContains(t, err, "habit not found")
}

func TestArgsValidation(t *testing.T) {
	cfgFile := newTestAPI(t)
	for _, args := range [][]string{{"add"}, {"done"}, {"delete"}, {"show"}, {"edit"}, {"list", "extra"}, {"import"}, {"export", "extra"}} {
		_, err := run(t, cfgFile, args...)
		require.Error(t, err, "args %v", args)
	}
}

func TestNudge_RequiresConfig(t *testing.T) {
	cfgFile := newTestAPI(t)
	t.Setenv("HABITS_RESEND_API_KEY", "")
	_, err := run(t, cfgFile, "nudge")
	require.ErrorContains(t, err, "invalid nudge config")
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"bolt", "sqlite", "json"} {
		st, err := openStore(config.StorageConfig{Backend: backend, Path: dir + "/habits." + backend})
		require.NoError(t, err, backend)
		habits, err := st.ListHabits("anyone")
		require.NoError(t, err)
		require.Empty(t, habits)
		require.NoError(t, st.Close())
	}
	_, err := openStore(config.StorageConfig{Backend: "mongo", Path: "x"})
	require.Error(t, err)
}
