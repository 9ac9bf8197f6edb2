package passkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret!", "s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, Verify(hash, "s3cret!"))
	assert.ErrorIs(t, Verify(hash, "wrong"), ErrInvalid)
	assert.ErrorIs(t, Verify("", "s3cret!"), ErrInvalid)
}

func TestHashValidation(t *testing.T) {
	_, err := Hash("12345", "12345")
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = Hash("123456", "1234567")
	assert.ErrorIs(t, err, ErrMismatch)

	long := strings.Repeat("k", MaxLength+1)
	_, err = Hash(long, long)
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = Hash(long[:MaxLength], long[:MaxLength])
	assert.NoError(t, err)
}
