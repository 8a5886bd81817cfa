// internal/services/auth_service.go
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/utils"
)

// AuthService implements wallet-signature login: the client requests a
// nonce, signs it with the wallet key, and exchanges the signature for a
// JWT scoped to that address.
type AuthService struct {
	config *config.Config

	mu     sync.Mutex
	nonces map[string]nonceEntry
}

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

const nonceTTL = 5 * time.Minute

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		config: cfg,
		nonces: make(map[string]nonceEntry),
	}
}

// IssueNonce creates a one-time login challenge for the address.
func (s *AuthService) IssueNonce(address string) (string, error) {
	if !utils.IsEthAddress(address) {
		return "", apperrors.New(apperrors.KindValidation, "invalid wallet address")
	}

	nonce, err := utils.GenerateNonce()
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, "failed to generate nonce", err)
	}

	s.mu.Lock()
	s.nonces[normalizeAddress(address)] = nonceEntry{
		nonce:     nonce,
		expiresAt: time.Now().Add(nonceTTL),
	}
	s.mu.Unlock()

	return loginMessage(nonce), nil
}

// VerifySignature checks the personal-sign signature over the issued nonce
// and returns a session token. Nonces are single-use.
func (s *AuthService) VerifySignature(address, signature string) (string, error) {
	if !utils.IsEthAddress(address) {
		return "", apperrors.New(apperrors.KindValidation, "invalid wallet address")
	}
	normalized := normalizeAddress(address)

	s.mu.Lock()
	entry, ok := s.nonces[normalized]
	delete(s.nonces, normalized)
	s.mu.Unlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", apperrors.New(apperrors.KindAuthFailure, "login challenge expired, request a new nonce")
	}

	recovered, err := recoverSigner(loginMessage(entry.nonce), signature)
	if err != nil {
		return "", err
	}
	if normalizeAddress(recovered.Hex()) != normalized {
		return "", apperrors.New(apperrors.KindAuthFailure, "signature does not match the wallet address")
	}

	token, err := utils.GenerateJWT(common.HexToAddress(address).Hex(), s.config.Story.ChainID, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, "failed to issue session token", err)
	}
	return token, nil
}

// recoverSigner recovers the address from an EIP-191 personal-sign
// signature over msg.
func recoverSigner(msg, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return common.Address{}, apperrors.New(apperrors.KindValidation, "malformed signature")
	}

	// Wallets return V as 27/28; crypto.SigToPub wants 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	digest := crypto.Keccak256([]byte(prefixed))

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, apperrors.Wrap(apperrors.KindAuthFailure, "failed to recover signer", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func loginMessage(nonce string) string {
	return fmt.Sprintf("Sign this message to log in to StoryMint.\n\nNonce: %s", nonce)
}

func normalizeAddress(address string) string {
	return strings.ToLower(address)
}

// PruneExpiredNonces drops stale challenges. Called periodically.
func (s *AuthService) PruneExpiredNonces() {
	now := time.Now()
	s.mu.Lock()
	for addr, entry := range s.nonces {
		if now.After(entry.expiresAt) {
			delete(s.nonces, addr)
		}
	}
	s.mu.Unlock()
}
