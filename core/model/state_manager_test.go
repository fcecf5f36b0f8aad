package model

import (
	"testing"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("LogisticRegression", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	s.SetFitted(3, 40)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("LogisticRegression", "Predict"))

	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 40, nSamples)

	assert.NoError(t, s.RequireFeatures("Predict", 3))
	assert.ErrorIs(t, s.RequireFeatures("Predict", 4), errors.ErrInvalidArgument)

	s.Reset()
	assert.False(t, s.IsFitted())
}
