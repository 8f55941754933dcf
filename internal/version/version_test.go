package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoPrefersLinkedVersion(t *testing.T) {
	oldVersion, oldBuild := Version, BuildTime
	t.Cleanup(func() { Version, BuildTime = oldVersion, oldBuild })

	Version, BuildTime = "1.2.3", "2026-01-02T03:04:05Z"
	assert.Equal(t, "1.2.3", GetVersion())
	assert.Equal(t, "omniplayer 1.2.3 (built 2026-01-02T03:04:05Z)", GetVersionInfo())
}
