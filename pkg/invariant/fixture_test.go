package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInvariantRegistryYAML(t *testing.T) {
	registry, err := LoadInvariantRegistryYAML("testdata/registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, registry.Len())

	def, ok := registry.Get("S-PAC-001")
	require.True(t, ok)
	assert.Equal(t, ClassStructural, def.Class)
	assert.Equal(t, SeverityCritical, def.Severity)
	assert.Contains(t, def.RequiredFields, "objective")

	atAdmission := registry.ApplicableAt(PACAdmission)
	assert.Len(t, atAdmission, 2)

	atWrap := registry.ApplicableAt(WRAPIngestion)
	require.Len(t, atWrap, 1)
	assert.Equal(t, "A-WRAP-001", atWrap[0].ID)
}

func TestLoadInvariantRegistryYAML_MissingFile(t *testing.T) {
	_, err := LoadInvariantRegistryYAML("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
