// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoryContractDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// The three contracts the client binds are distinct addresses: the
	// workflows periphery, the licensing module, and the PIL template.
	assert.Equal(t, "0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424", cfg.Story.RegistrationWorkflows)
	assert.Equal(t, "0x04fbd8a2e56dd85CFD5500A4A4DfA955B9f1dE6f", cfg.Story.LicensingModule)
	assert.Equal(t, "0x2E896b0b2Fdb7457499B56AAaA4AE55BCB4Cd316", cfg.Story.PILicenseTemplate)
	assert.NotEqual(t, cfg.Story.RegistrationWorkflows, cfg.Story.LicensingModule)

	assert.Equal(t, int64(1514), cfg.Story.ChainID)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STORY_LICENSING_MODULE", "0x0000000000000000000000000000000000000001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", cfg.Story.LicensingModule)
}
