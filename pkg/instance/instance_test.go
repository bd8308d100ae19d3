package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "cron-1")
	t.Setenv("DYNO", "worker.2")
	assert.Equal(t, "cron-1", GetID())
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	assert.Equal(t, "worker.2", GetID())
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	assert.NotEmpty(t, GetID())
}
