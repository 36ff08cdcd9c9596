package fpa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/effort-cli/internal/model"
)

func inventoryManager() model.FunctionPointAnalysis {
	return model.FunctionPointAnalysis{
		ExternalInputs:         model.FunctionCategory{Count: 3},
		ExternalOutputs:        model.FunctionCategory{Count: 2},
		ExternalInquiries:      model.FunctionCategory{Count: 1},
		InternalLogicalFiles:   model.FunctionCategory{Count: 2},
		ExternalInterfaceFiles: model.FunctionCategory{Count: 1},
	}
}

func TestUnadjusted(t *testing.T) {
	ufp, err := Unadjusted(inventoryManager())
	require.NoError(t, err)
	// 3*4 + 2*5 + 1*4 + 2*10 + 1*7
	assert.Equal(t, 53, ufp)

	ufp, err = Unadjusted(model.FunctionPointAnalysis{})
	require.NoError(t, err)
	assert.Equal(t, 0, ufp)
}

func TestUnadjusted_Negative(t *testing.T) {
	a := inventoryManager()
	a.ExternalOutputs.Count = -1

	_, err := Unadjusted(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeCount))
}

func TestSizer_Size(t *testing.T) {
	got, err := NewSizer(0).Size(inventoryManager())
	require.NoError(t, err)
	assert.Equal(t, 53, got.UnadjustedFP)
	assert.InDelta(t, 53*53.0/1000, got.KLOC, 1e-12)

	got, err = NewSizer(100).Size(inventoryManager())
	require.NoError(t, err)
	assert.InDelta(t, 5.3, got.KLOC, 1e-12)
}
