// internal/services/auth_service_test.go
package services

import (
	"crypto/ecdsa"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/utils"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	return NewAuthService(&config.Config{
		Story: config.StoryConfig{ChainID: 1514},
		JWT:   config.JWTConfig{AccessTokenTTL: 24},
	})
}

func signLoginMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	sig, err := crypto.Sign(crypto.Keccak256([]byte(prefixed)), key)
	assert.NoError(t, err)
	// Wallets report the recovery id as 27/28.
	sig[64] += 27
	return hexutil.Encode(sig)
}

func TestWalletLoginRoundTrip(t *testing.T) {
	svc := testAuthService(t)

	key, err := crypto.GenerateKey()
	assert.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := svc.IssueNonce(address)
	assert.NoError(t, err)
	assert.Contains(t, message, "Sign this message to log in to StoryMint.")

	token, err := svc.VerifySignature(address, signLoginMessage(t, key, message))
	assert.NoError(t, err)

	claims, err := utils.ValidateJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, address, claims.WalletAddress)
	assert.Equal(t, int64(1514), claims.ChainID)
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	svc := testAuthService(t)

	walletKey, _ := crypto.GenerateKey()
	attackerKey, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(walletKey.PublicKey).Hex()

	message, err := svc.IssueNonce(address)
	assert.NoError(t, err)

	_, err = svc.VerifySignature(address, signLoginMessage(t, attackerKey, message))
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuthFailure, apperrors.KindOf(err))
}

func TestNonceIsSingleUse(t *testing.T) {
	svc := testAuthService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := svc.IssueNonce(address)
	assert.NoError(t, err)
	signature := signLoginMessage(t, key, message)

	_, err = svc.VerifySignature(address, signature)
	assert.NoError(t, err)

	// Replaying the same signature must fail: the nonce was consumed.
	_, err = svc.VerifySignature(address, signature)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuthFailure, apperrors.KindOf(err))
}

func TestVerifyWithoutNonceFails(t *testing.T) {
	svc := testAuthService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	_, err := svc.VerifySignature(address, signLoginMessage(t, key, "never issued"))
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuthFailure, apperrors.KindOf(err))
}

func TestExpiredNoncePruned(t *testing.T) {
	svc := testAuthService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := svc.IssueNonce(address)
	assert.NoError(t, err)

	entry := svc.nonces[normalizeAddress(address)]
	entry.expiresAt = time.Now().Add(-time.Second)
	svc.nonces[normalizeAddress(address)] = entry

	svc.PruneExpiredNonces()
	assert.Empty(t, svc.nonces)

	_, err = svc.VerifySignature(address, signLoginMessage(t, key, message))
	assert.Error(t, err)
}

func TestIssueNonceRejectsMalformedAddress(t *testing.T) {
	svc := testAuthService(t)

	_, err := svc.IssueNonce("not-an-address")
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	svc := testAuthService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	_, err := svc.IssueNonce(address)
	assert.NoError(t, err)

	_, err = svc.VerifySignature(address, "0xdeadbeef")
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
