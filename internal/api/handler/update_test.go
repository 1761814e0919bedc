package handler

import (
	"testing"

	"recruit-track-go/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseSparseUpdate(t *testing.T) {
	allowed := map[string]bool{"name": true, "skills": true, "relevance_score": true}

	updates, err := parseSparseUpdate([]byte(`{"name":"Alice","relevance_score":85}`), allowed)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updates["name"])
	assert.Equal(t, float64(85), updates["relevance_score"])
	// 未出现的字段不进入更新集
	assert.NotContains(t, updates, "skills")
}

func TestParseSparseUpdateEncodesJSONColumns(t *testing.T) {
	allowed := map[string]bool{"skills": true}

	updates, err := parseSparseUpdate([]byte(`{"skills":["Go","SQL"]}`), allowed)
	require.NoError(t, err)
	encoded, ok := updates["skills"].(datatypes.JSON)
	require.True(t, ok)
	assert.JSONEq(t, `["Go","SQL"]`, string(encoded))
}

func TestParseSparseUpdateRejections(t *testing.T) {
	allowed := map[string]bool{"name": true}

	_, err := parseSparseUpdate([]byte(`{"password":"x"}`), allowed)
	assert.ErrorIs(t, err, repo.ErrValidation)

	_, err = parseSparseUpdate([]byte(`{}`), allowed)
	assert.ErrorIs(t, err, repo.ErrValidation)

	_, err = parseSparseUpdate([]byte(`not json`), allowed)
	assert.ErrorIs(t, err, repo.ErrValidation)
}
