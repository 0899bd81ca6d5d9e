package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scout/internal/config"
	"scout/internal/types"
)

func TestProfileHashDeterministic(t *testing.T) {
	a := ProfileHash("embedded Go folks")
	b := ProfileHash("embedded Go folks")
	c := ProfileHash("embedded Rust folks")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestBuildRealJob(t *testing.T) {
	cfg := config.Default()
	cfg.Profile = "embedded Go folks"
	cfg.AvoidList = []string{"Acme Corp", "@adapark"}

	job := Build(cfg, types.ModeReal)
	assert.Equal(t, types.ModeReal, job.Mode)
	assert.NoError(t, job.Validate())
	assert.Contains(t, job.UserPrompt, "embedded Go folks")
	assert.Contains(t, job.UserPrompt, "at least 2 evidence URLs")
	assert.Contains(t, job.UserPrompt, "Acme Corp")
	assert.Contains(t, job.UserPrompt, "@adapark")
	assert.Contains(t, job.SystemPrompt, `"candidates"`)
}

func TestBuildSmokeJob(t *testing.T) {
	cfg := config.Default()
	cfg.Profile = "should not appear"

	job := Build(cfg, types.ModeSmoke)
	assert.Equal(t, types.ModeSmoke, job.Mode)
	assert.NoError(t, job.Validate())
	assert.Contains(t, job.UserPrompt, `{"status":"ok"}`)
	assert.NotContains(t, job.UserPrompt, "should not appear")
}

func TestBuildOmitsAvoidListWhenEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.Profile = "profile"

	job := Build(cfg, types.ModeReal)
	assert.NotContains(t, job.UserPrompt, "do not repeat")
}
