package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScorerConfig_Valid(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateConfig(DefaultScorerConfig()))
}

func TestValidateConfig_Errors(t *testing.T) {
	t.Parallel()

	cfg := DefaultScorerConfig()
	cfg.EmailBonus = -1
	cfg.MinNameLength = 10
	cfg.MaxNameLength = 5
	cfg.ParasiticWords = append(cfg.ParasiticWords, " ")

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email_bonus must be >= 0")
	assert.Contains(t, err.Error(), "max_name_length must be >= min_name_length")
	assert.Contains(t, err.Error(), "blank entries")
}
