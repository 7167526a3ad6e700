package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expires, err := signer.Generate("job-1", "marks_sheet-job-1.csv")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	jobID, relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "marks_sheet-job-1.csv", relPath)
	assert.Equal(t, expires.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("job-1", "report.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "00")
	assert.Error(t, err)

	_, _, _, err = signer.Parse("not.a.token")
	assert.Error(t, err)
}

func TestSignedURLRejectsWrongSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("secret-a", time.Minute).Generate("job-1", "report.csv")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("secret-b", time.Minute).Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Nanosecond)
	token, _, err := signer.Generate("job-1", "report.csv")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, _, _, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	_, _, err := signer.Generate("", "report.csv")
	assert.Error(t, err)
	_, _, err = signer.Generate("job-1", "")
	assert.Error(t, err)
}
