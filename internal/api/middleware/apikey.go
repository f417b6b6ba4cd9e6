package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/contentgen/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyPrefix starts every issued key so they are recognisable in logs.
const APIKeyPrefix = "cg_"

// IssueAPIKey generates a new raw key for tenantID and the record that stores
// its bcrypt hash. The raw key is returned once and never persisted.
func IssueAPIKey(tenantID, name string, scopes []string, cost int) (*models.APIKey, string, error) {
	if tenantID == "" {
		return nil, "", ErrTenantRequired
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("generate key: %w", err)
	}
	raw := APIKeyPrefix + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash key: %w", err)
	}
	if scopes == nil {
		scopes = []string{}
	}

	now := time.Now().UTC()
	return &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:keyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, raw, nil
}
