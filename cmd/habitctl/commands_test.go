package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	t.Setenv("BASE_EXPERIENCE_POINTS", "10")
	t.Setenv("STREAK_MULTIPLIER", "0.1")
	t.Setenv("LEVEL_EXPERIENCE_BASE", "10")
	t.Setenv("LEVEL_EXPERIENCE_MULTIPLIER", "1.05")
	t.Setenv("MAX_EXP_PER_LEVEL", "250")
	t.Setenv("MAX_LEVEL_CAP", "100")
	var buf bytes.Buffer
	return &Context{Out: &buf, Log: zap.NewNop()}, &buf
}

func TestLevelsCmd(t *testing.T) {
	ctx, out := testContext(t)
	require.NoError(t, (&LevelsCmd{Max: 3}).Run(ctx))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"LEVEL", "TOTAL", "XP", "STEP"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "0", "0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "10", "10"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"3", "20", "10"}, strings.Fields(lines[3]))
}

func TestAwardCmd(t *testing.T) {
	ctx, out := testContext(t)
	require.NoError(t, (&AwardCmd{Count: 5}).Run(ctx))
	assert.Equal(t, "base=10 bonus=5 total=15 multiplier=1.50\n", out.String())
}

func TestReconcileRejectsBadInput(t *testing.T) {
	ctx, _ := testContext(t)
	assert.ErrorContains(t, (&ReconcileCmd{UserID: "nope"}).Run(ctx), "invalid user id")

	t.Setenv("DATABASE_URL", "")
	assert.ErrorContains(t,
		(&ReconcileCmd{UserID: "6f1c1c3e-8f5e-4a57-9a3a-2b0a4f1e9b11"}).Run(ctx),
		"DATABASE_URL is required")
}
