package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/domain"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rutctl", cmd.Use)

	for _, name := range []string{"check", "reindex", "token", "seed", "inspect"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "drift")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitFailure, "seed", errors.New("boom"))
	assert.Equal(t, "seed: boom", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

// rutctl runs the root command against dataPath and returns stdout.
func rutctl(t *testing.T, dataPath string, args ...string) (string, error) {
	t.Helper()
	// Seeded accounts only need to exist; cheap hashing keeps the run fast.
	t.Setenv("ARGON2_MEMORY_KIB", "64")
	t.Setenv("ARGON2_ITERATIONS", "1")
	t.Setenv("ARGON2_PARALLELISM", "1")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--data-path", dataPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decodeResult[T any](t *testing.T, out string) T {
	t.Helper()

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)

	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestInvalidFormat(t *testing.T) {
	_, err := rutctl(t, t.TempDir(), "--format", "yaml", "check")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedCheckInspect(t *testing.T) {
	dir := t.TempDir()

	out, err := rutctl(t, dir, "--format", "json", "seed")
	require.NoError(t, err)
	first := decodeResult[SeedResult](t, out)
	assert.Equal(t, 3, first.Users)
	assert.Equal(t, len(seedCatalog), first.Items)
	assert.Equal(t, 3, first.Ruts)
	assert.GreaterOrEqual(t, first.Collects, 9)
	assert.LessOrEqual(t, first.Collects, 15)
	assert.Equal(t, 9, first.Stars) // two items and one rut per user
	assert.Empty(t, first.Skipped)

	// A second run reuses users and items but adds fresh ruts.
	out, err = rutctl(t, dir, "--format", "json", "seed")
	require.NoError(t, err)
	second := decodeResult[SeedResult](t, out)
	assert.Zero(t, second.Users)
	assert.Zero(t, second.Items)
	assert.Equal(t, 3, second.Ruts)
	assert.Contains(t, second.Skipped, "user demo1 exists")

	out, err = rutctl(t, dir, "check")
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")

	out, err = rutctl(t, dir, "--format", "json", "inspect")
	require.NoError(t, err)
	summary := decodeResult[Summary](t, out)
	assert.Equal(t, len(seedCatalog), summary.Items)
	assert.Equal(t, 6, summary.Ruts)
	assert.Equal(t, first.Collects+second.Collects, summary.Collects)
	assert.NotEmpty(t, summary.Top)
	assert.NotNil(t, summary.Documents)
}

func TestReindex(t *testing.T) {
	dir := t.TempDir()

	_, err := rutctl(t, dir, "seed", "--users", "1")
	require.NoError(t, err)

	out, err := rutctl(t, dir, "--format", "json", "reindex")
	require.NoError(t, err)
	got := decodeResult[map[string]int](t, out)
	// Every item plus the one rut.
	assert.Equal(t, len(seedCatalog)+1, got["documents"])
}

func TestToken(t *testing.T) {
	dir := t.TempDir()

	_, err := rutctl(t, dir, "seed", "--users", "1", "--prefix", "ops")
	require.NoError(t, err)

	out, err := rutctl(t, dir, "token", "ops1")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 0)
	require.NoError(t, err)
	claims, err := tokens.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops1", claims.Principal().UName)

	_, err = rutctl(t, dir, "token", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTopCollected(t *testing.T) {
	items := []*domain.Item{
		{ID: "a", Title: "Beta", RutCount: 2},
		{ID: "b", Title: "Alpha", RutCount: 2},
		{ID: "c", Title: "Gamma", RutCount: 5},
		{ID: "d", Title: "Never", RutCount: 0},
	}

	got := topCollected(items, 5)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})

	assert.Len(t, topCollected(items, 1), 1)
	assert.Empty(t, topCollected(nil, 5))
}
