package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDraftContract(t *testing.T, env *testEnv) *ContractResponse {
	t.Helper()
	resp, err := env.contracts.CreateContract(context.Background(), env.owner.ID, CreateContractRequest{
		UnitID:        env.unit.ID.String(),
		TenantID:      env.tenant.ID.String(),
		MonthlyRent:   "10000",
		DepositAmount: "20000",
		StartDate:     "2026-09-01",
		EndDate:       "2027-08-31",
		Terms:         "standard terms",
	})
	require.NoError(t, err)
	return resp
}

func signaturePNG() string {
	return base64.StdEncoding.EncodeToString([]byte("signature-png-bytes"))
}

func TestCreateContractDraft(t *testing.T) {
	env := newTestEnv(t)
	resp := createDraftContract(t, env)

	assert.Equal(t, model.ContractDraft, resp.Status)
	assert.Equal(t, "10000.00", resp.MonthlyRent)
	assert.Equal(t, "20000.00", resp.DepositAmount)
	assert.Equal(t, env.project.ID.String(), resp.ProjectID)
	assert.Empty(t, resp.SignURL)
}

func TestUpdateContractDraftOnly(t *testing.T) {
	env := newTestEnv(t)
	resp := createDraftContract(t, env)
	ctx := context.Background()
	id := mustUUID(t, resp.ID)

	rent := "12000"
	updated, err := env.contracts.UpdateContract(ctx, env.owner.ID, id, UpdateContractRequest{MonthlyRent: &rent})
	require.NoError(t, err)
	assert.Equal(t, "12000.00", updated.MonthlyRent)

	_, err = env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)

	_, err = env.contracts.UpdateContract(ctx, env.owner.ID, id, UpdateContractRequest{MonthlyRent: &rent})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSignatureFlow(t *testing.T) {
	env := newTestEnv(t)
	resp := createDraftContract(t, env)
	ctx := context.Background()
	id := mustUUID(t, resp.ID)

	sent, err := env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)
	assert.Equal(t, model.ContractAwaiting, sent.Status)
	require.Contains(t, sent.SignURL, "https://app.test/api/sign/")

	token := strings.TrimPrefix(sent.SignURL, "https://app.test/api/sign/")
	require.Len(t, token, 48) // 24 random bytes hex-encoded

	// The tenant can view the contract through the token without an account.
	viewed, err := env.contracts.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, viewed.ID)

	signed, err := env.contracts.SignByToken(ctx, token, SignContractRequest{Signature: signaturePNG()})
	require.NoError(t, err)
	assert.Equal(t, model.ContractSigned, signed.Status)
	require.NotNil(t, signed.SignedAt)
	assert.Equal(t, 1, env.store.count())

	// The token is single-use.
	_, err = env.contracts.GetByToken(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	countersigned, err := env.contracts.Countersign(ctx, env.owner.ID, id, SignContractRequest{Signature: signaturePNG()})
	require.NoError(t, err)
	assert.Equal(t, model.ContractSigned, countersigned.Status)
	assert.Equal(t, 2, env.store.count())
}

func TestSignTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	resp := createDraftContract(t, env)
	ctx := context.Background()
	id := mustUUID(t, resp.ID)

	sent, err := env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)
	token := strings.TrimPrefix(sent.SignURL, "https://app.test/api/sign/")

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&model.LeaseContract{}).
		Where("id = ?", id).
		Update("sign_token_expires_at", expired).Error)

	_, err = env.contracts.GetByToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = env.contracts.SignByToken(ctx, token, SignContractRequest{Signature: signaturePNG()})
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDeleteContractRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := createDraftContract(t, env)
	require.NoError(t, env.contracts.DeleteContract(ctx, env.owner.ID, mustUUID(t, draft.ID)))

	second := createDraftContract(t, env)
	id := mustUUID(t, second.ID)
	sent, err := env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)
	token := strings.TrimPrefix(sent.SignURL, "https://app.test/api/sign/")
	_, err = env.contracts.SignByToken(ctx, token, SignContractRequest{Signature: signaturePNG()})
	require.NoError(t, err)

	err = env.contracts.DeleteContract(ctx, env.owner.ID, id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestResendMintsFreshToken(t *testing.T) {
	env := newTestEnv(t)
	resp := createDraftContract(t, env)
	ctx := context.Background()
	id := mustUUID(t, resp.ID)

	first, err := env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)
	second, err := env.contracts.SendForSignature(ctx, env.owner.ID, id)
	require.NoError(t, err)

	assert.NotEqual(t, first.SignURL, second.SignURL)

	// Only the latest token resolves.
	stale := strings.TrimPrefix(first.SignURL, "https://app.test/api/sign/")
	_, err = env.contracts.GetByToken(ctx, stale)
	assert.ErrorIs(t, err, ErrNotFound)
}
