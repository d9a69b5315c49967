package smoke_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/simchain"
	"github.com/bitxelroads/btrd/internal/smoke"
	"github.com/bitxelroads/btrd/internal/wallet"
	"github.com/bitxelroads/btrd/test/fixtures"
)

const (
	ownerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	otherKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var recipient = common.HexToAddress("0x1234567890123456789012345678901234567890")

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func signer(t *testing.T, sim *simchain.Chain, key string) *wallet.Signer {
	t.Helper()
	s, err := wallet.NewSigner(key)
	require.NoError(t, err)
	sim.Fund(s.Address(), tokens(1))
	return s
}

// deployed returns a chain with the token deployed by ownerKey.
func deployed(t *testing.T) (*simchain.Chain, *wallet.Signer, common.Address) {
	t.Helper()
	ctx := context.Background()
	sim := simchain.New(84532)
	owner := signer(t, sim, ownerKey)

	s, err := contract.NewSender(ctx, sim, owner, time.Millisecond)
	require.NoError(t, err)
	d, err := contract.Deploy(ctx, s, fixtures.LoadArtifact(t), owner.Address())
	require.NoError(t, err)
	_, err = d.Wait(ctx, s)
	require.NoError(t, err)
	return sim, owner, d.Address
}

func defaultPlan(token common.Address) smoke.Plan {
	return smoke.Plan{
		Token:        token,
		Recipient:    recipient,
		Transfer:     "1000",
		Approve:      "500",
		Burn:         "100",
		PollInterval: time.Millisecond,
		TxTimeout:    5 * time.Second,
	}
}

func stepNames(rep *smoke.Report) []string {
	var names []string
	for _, s := range rep.Steps {
		names = append(names, s.Name)
	}
	return names
}

// ---------------------------------------------------------------------------
// happy path
// ---------------------------------------------------------------------------

func TestRunObservesEveryEffect(t *testing.T) {
	ctx := context.Background()
	sim, owner, addr := deployed(t)

	r := &smoke.Runner{Backend: sim, Signer: owner}
	rep, err := r.Run(ctx, defaultPlan(addr))
	require.NoError(t, err)

	assert.Equal(t, simchain.TokenName, rep.Name)
	assert.Equal(t, "BTRD", rep.Symbol)
	assert.Equal(t, uint8(18), rep.Decimals)
	assert.Equal(t, simchain.DefaultSupply, rep.TotalSupply)
	assert.Equal(t, simchain.DefaultSupply, rep.Balance)
	assert.Equal(t, []string{"transfer", "approve", "pause", "unpause", "self-approve", "burnFrom"}, stepNames(rep))
	for _, s := range rep.Steps {
		assert.NotEqual(t, common.Hash{}, s.Tx, s.Name)
	}

	tok, err := contract.Attach(ctx, sim, addr)
	require.NoError(t, err)

	got, err := tok.BalanceOf(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, tokens(1000), got)

	allowance, err := tok.Allowance(ctx, owner.Address(), recipient)
	require.NoError(t, err)
	assert.Equal(t, tokens(500), allowance)

	paused, err := tok.Paused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Sub(simchain.DefaultSupply, tokens(100)), supply)
}

func TestRunSkipsSelfApproveWithEnoughAllowance(t *testing.T) {
	ctx := context.Background()
	sim, owner, addr := deployed(t)

	s, err := contract.NewSender(ctx, sim, owner, time.Millisecond)
	require.NoError(t, err)
	tok, err := contract.Attach(ctx, sim, addr)
	require.NoError(t, err)
	maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	_, err = tok.WithSender(s).Approve(ctx, owner.Address(), maxUint)
	require.NoError(t, err)

	rep, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(ctx, defaultPlan(addr))
	require.NoError(t, err)
	assert.Equal(t, []string{"transfer", "approve", "pause", "unpause", "burnFrom"}, stepNames(rep))
}

func TestRunTwice(t *testing.T) {
	ctx := context.Background()
	sim, owner, addr := deployed(t)
	r := &smoke.Runner{Backend: sim, Signer: owner}

	_, err := r.Run(ctx, defaultPlan(addr))
	require.NoError(t, err)
	_, err = r.Run(ctx, defaultPlan(addr))
	require.NoError(t, err)

	tok, err := contract.Attach(ctx, sim, addr)
	require.NoError(t, err)
	got, err := tok.BalanceOf(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, tokens(2000), got)
}

// ---------------------------------------------------------------------------
// failed checks
// ---------------------------------------------------------------------------

func TestRunTransferWithoutEffect(t *testing.T) {
	sim, owner, addr := deployed(t)
	sim.NoEffect["transfer"] = true

	rep, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(addr))
	require.ErrorIs(t, err, smoke.ErrCheckFailed)
	assert.Contains(t, err.Error(), "transfer moved 0")
	assert.Empty(t, rep.Steps)
}

func TestRunApproveWithoutEffect(t *testing.T) {
	sim, owner, addr := deployed(t)
	sim.NoEffect["approve"] = true

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(addr))
	require.ErrorIs(t, err, smoke.ErrCheckFailed)
	assert.Contains(t, err.Error(), "allowance is 0")
}

func TestRunPauseWithoutEffect(t *testing.T) {
	sim, owner, addr := deployed(t)
	sim.NoEffect["pause"] = true

	rep, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(addr))
	require.ErrorIs(t, err, smoke.ErrCheckFailed)
	assert.Contains(t, err.Error(), "paused() is false after pause")
	assert.Equal(t, []string{"transfer", "approve"}, stepNames(rep))
}

func TestRunBurnWithoutEffect(t *testing.T) {
	sim, owner, addr := deployed(t)
	sim.NoEffect["burnFrom"] = true

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(addr))
	require.ErrorIs(t, err, smoke.ErrCheckFailed)
	assert.Contains(t, err.Error(), "burnFrom reduced supply by 0")
}

// ---------------------------------------------------------------------------
// errors
// ---------------------------------------------------------------------------

func TestRunRevertedReceipt(t *testing.T) {
	sim, owner, addr := deployed(t)
	sim.RevertOnMine["burnFrom"] = true

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(addr))
	require.ErrorIs(t, err, chain.ErrReverted)
}

func TestRunNotOwnerCannotPause(t *testing.T) {
	ctx := context.Background()
	sim, owner, addr := deployed(t)

	// Give the outsider tokens so transfer and approve succeed.
	s, err := contract.NewSender(ctx, sim, owner, time.Millisecond)
	require.NoError(t, err)
	other := signer(t, sim, otherKey)
	tok, err := contract.Attach(ctx, sim, addr)
	require.NoError(t, err)
	_, err = tok.WithSender(s).Transfer(ctx, other.Address(), tokens(5000))
	require.NoError(t, err)

	rep, err := (&smoke.Runner{Backend: sim, Signer: other}).Run(ctx, defaultPlan(addr))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OwnableUnauthorizedAccount")
	assert.Equal(t, []string{"transfer", "approve"}, stepNames(rep))
}

func TestRunNoCode(t *testing.T) {
	sim, owner, _ := deployed(t)

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), defaultPlan(recipient))
	require.ErrorIs(t, err, contract.ErrNoCode)
}

func TestRunRecipientIsSigner(t *testing.T) {
	sim, owner, addr := deployed(t)
	plan := defaultPlan(addr)
	plan.Recipient = owner.Address()

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the signer")
}

func TestRunBadAmount(t *testing.T) {
	sim, owner, addr := deployed(t)
	plan := defaultPlan(addr)
	plan.Approve = "0"

	_, err := (&smoke.Runner{Backend: sim, Signer: owner}).Run(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
