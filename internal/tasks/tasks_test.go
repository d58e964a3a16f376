package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScoreAwardTask(t *testing.T) {
	raw, err := NewScoreAwardTask(4, 8, "alpha")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":4,"delta":8,"room":"alpha"}`, string(raw))
}

func TestNewRoomSweepTask(t *testing.T) {
	raw, err := NewRoomSweepTask(30 * time.Minute)
	require.NoError(t, err)
	var p RoomSweepPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, 1800, p.OlderThanSeconds)
}
