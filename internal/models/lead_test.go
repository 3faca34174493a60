package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKnownStatus(t *testing.T) {
	for _, s := range FunnelStages {
		assert.True(t, IsKnownStatus(s))
	}
	assert.True(t, IsKnownStatus(StatusAguardandoLigacao))
	assert.True(t, IsKnownStatus(StatusNaoRespondeu))
	assert.False(t, IsKnownStatus("Foo Bar"))
	assert.False(t, IsKnownStatus(""))
}

func TestIsOrderedStage(t *testing.T) {
	assert.True(t, IsOrderedStage(StatusPrimeiroContato))
	assert.True(t, IsOrderedStage(StatusUltimoContato))
	assert.False(t, IsOrderedStage(StatusAguardandoLigacao))
	assert.False(t, IsOrderedStage(StatusNaoRespondeu))
}

func TestNextStage(t *testing.T) {
	assert.Equal(t, StatusSegundoContato, NextStage(StatusPrimeiroContato))
	assert.Equal(t, StatusTerceiroContato, NextStage(StatusSegundoContato))
	assert.Equal(t, StatusUltimoContato, NextStage(StatusTerceiroContato))
	assert.Equal(t, "", NextStage(StatusUltimoContato))
	assert.Equal(t, "", NextStage(StatusAguardandoLigacao))
	assert.Equal(t, "", NextStage("Foo Bar"))
}
