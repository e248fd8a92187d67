package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureVerifier(t *testing.T) {
	assert.Nil(t, NewSignatureVerifier(""))

	v := NewSignatureVerifier("whsec")
	sig := v.Sign("ABC123", "req-1", "1700000000")

	assert.NoError(t, v.Verify("ts=1700000000,v1="+sig, "req-1", "abc123"))
	assert.NoError(t, v.Verify(" ts=1700000000 , v1="+sig+" ", "req-1", "ABC123"))

	assert.ErrorIs(t, v.Verify("", "req-1", "abc123"), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify("v1="+sig, "req-1", "abc123"), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("ts=1700000000,v1=zz", "req-1", "abc123"), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("ts=1700000001,v1="+sig, "req-1", "abc123"), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("ts=1700000000,v1="+sig, "req-2", "abc123"), ErrInvalidSignature)
}

func TestSignatureManifest(t *testing.T) {
	assert.Equal(t, "id:abc;request-id:r;ts:1;", signatureManifest("ABC", "r", "1"))
	assert.Equal(t, "ts:1;", signatureManifest("", "", "1"))
}
