package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordChecker(t *testing.T) {
	req := require.New(t)

	open, err := NewPasswordChecker("", bcrypt.MinCost)
	req.NoError(err)
	req.Nil(open)

	chk, err := NewPasswordChecker("s3cret", bcrypt.MinCost)
	req.NoError(err)
	req.True(chk.Verify("s3cret"))
	req.False(chk.Verify("S3cret"))
	req.False(chk.Verify(""))
}

func TestNewHashChecker(t *testing.T) {
	req := require.New(t)

	_, err := NewHashChecker("")
	req.ErrorIs(err, ErrEmptyHash)

	_, err = NewHashChecker("not-a-hash")
	req.Error(err)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	req.NoError(err)
	chk, err := NewHashChecker(string(hash))
	req.NoError(err)
	req.True(chk.Verify("pw"))
}
