package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("LOST")
	require.NoError(t, err)
	assert.Equal(t, KindLost, kind)

	kind, err = ParseKind("  found ")
	require.NoError(t, err)
	assert.Equal(t, KindFound, kind)

	_, err = ParseKind("banana")
	assert.Error(t, err)

	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("Open")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, status)

	status, err = ParseStatus("claimed")
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, status)

	_, err = ParseStatus("resolved")
	assert.Error(t, err)
}

func TestParseContactType(t *testing.T) {
	for _, raw := range []string{"whatsapp", "Instagram", "TELEGRAM", "line", "other"} {
		_, err := ParseContactType(raw)
		assert.NoError(t, err, raw)
	}

	_, err := ParseContactType("carrier-pigeon")
	assert.Error(t, err)
}
