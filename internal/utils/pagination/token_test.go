package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	entryDate := time.Date(2024, 3, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(entryDate, 42)
	assert.NotEmpty(t, token)

	decodedDate, seq, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, entryDate.Equal(decodedDate))
	assert.Equal(t, int64(42), seq)
}

func TestEncodeTokenNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	entryDate := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)

	decodedDate, _, err := DecodeToken(EncodeToken(entryDate, 1))
	require.NoError(t, err)
	assert.True(t, entryDate.Equal(decodedDate))
	assert.Equal(t, time.UTC, decodedDate.Location())
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	_, _, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("no-separator")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	_, _, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("yesterday|1")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry date parse")

	_, _, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("2024-03-15T00:00:00Z|abc")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence parse")
}
