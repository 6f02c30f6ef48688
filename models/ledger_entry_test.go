package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerEntry_Available(t *testing.T) {
	tests := []struct {
		name    string
		credits int64
		used    int64
		want    int64
	}{
		{"nothing used", 10, 0, 10},
		{"partially used", 10, 4, 6},
		{"fully used", 10, 10, 0},
		{"credits shrunk below used clamps at zero", 5, 8, 0},
		{"zero entry", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &LedgerEntry{Credits: tt.credits, Used: tt.used}
			assert.Equal(t, tt.want, entry.Available())
		})
	}
}

func TestModuleUsage_Unlimited(t *testing.T) {
	assert.True(t, UnlimitedUsage().Unlimited())
	assert.False(t, ModuleUsage{Credits: 10, Used: 2, Available: 8}.Unlimited())
	assert.False(t, ModuleUsage{}.Unlimited())
}

func TestModule_Valid(t *testing.T) {
	for _, module := range AllModules() {
		assert.True(t, module.Valid(), module)
	}
	assert.False(t, Module("bogus").Valid())
	assert.False(t, Module("").Valid())
}
