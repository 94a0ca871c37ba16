package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_KeyAndFormat(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := DefaultConfig(PrefixSRN)
	assert.Equal(t, "SRN_2026", cfg.Key(period))
	assert.Equal(t, "SRN-2026-00042", cfg.Format(period, 42))

	cfg.ResetPeriod = "month"
	assert.Equal(t, "SRN_2026_03", cfg.Key(period))

	cfg.IncludeYear = false
	cfg.PadWidth = 3
	assert.Equal(t, "SRN-007", cfg.Format(period, 7))
}
