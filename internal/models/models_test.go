package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewWalletStore(dir)

	_, err := store.GetConnection()
	assert.ErrorIs(t, err, ErrNotConnected)

	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, store.SaveConnection(Connection{Address: addr, WatchOnly: true}))

	info, err := os.Stat(store.ConnectionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	conn, err := store.GetConnection()
	require.NoError(t, err)
	assert.Equal(t, addr, conn.Address)
	assert.True(t, conn.WatchOnly)

	require.NoError(t, store.ClearConnection())
	_, err = store.GetConnection()
	assert.ErrorIs(t, err, ErrNotConnected)

	// Clearing twice is not an error
	assert.NoError(t, store.ClearConnection())
}

func TestLoadDeployment(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr bool
		check   func(t *testing.T, d *Deployment)
	}{
		{
			name: "deploy script json",
			file: "deployed.local.json",
			content: `{
  "membership": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
  "listing": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
  "booking": "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
  "accessNft": "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"
}`,
			check: func(t *testing.T, d *Deployment) {
				assert.True(t, d.Has(ContractAccessNFT))
				addr, err := d.Address(ContractBooking)
				require.NoError(t, err)
				assert.Equal(t, common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"), addr)
			},
		},
		{
			name: "yaml without access token",
			file: "deployment.yaml",
			content: `membership: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
listing: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
booking: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
`,
			check: func(t *testing.T, d *Deployment) {
				assert.False(t, d.Has(ContractAccessNFT))
				_, err := d.Address(ContractAccessNFT)
				assert.ErrorIs(t, err, ErrContractNotSet)
			},
		},
		{
			name:    "malformed address",
			file:    "bad.json",
			content: `{"membership": "0x1234"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			d, err := LoadDeployment(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func TestMembershipLabels(t *testing.T) {
	tests := []struct {
		state  MembershipState
		label  string
		action string
	}{
		{MembershipDisconnected, "Connect wallet", "Buy membership"},
		{MembershipNoContract, "Contract not set", "Buy membership"},
		{MembershipWrongNetwork, "Wrong network", "Buy membership"},
		{MembershipActive, "✓ Active Member", "Extend membership"},
		{MembershipInactive, "Not a member", "Buy membership"},
	}

	for _, tt := range tests {
		m := &Membership{State: tt.state, ExpiresAt: 1761868800}
		assert.Equal(t, tt.label, m.Label())
		assert.Equal(t, tt.action, m.ActionLabel())
		assert.Equal(t, tt.state == MembershipActive, m.ShowExpiry())
	}
}

func TestTxResult(t *testing.T) {
	r := TxResult{State: TxPending}
	assert.True(t, r.InProgress())
	assert.Equal(t, "Pending...", r.Label())
	assert.Empty(t, r.ShortHash())

	r.Hash = common.HexToHash("0x8f3c9a1b2c3d4e5f60718293a4b5c6d7e8f90123456789abcdef0123deadbeef")
	r.State = TxConfirmed
	assert.False(t, r.InProgress())
	assert.Equal(t, "Confirmed ✓", r.Label())
	assert.Equal(t, "0x8f3c9a1b...deadbeef", r.ShortHash())

	r.State = TxFailed
	assert.Equal(t, "Failed ✗", r.Label())
}

func TestContractNotSet(t *testing.T) {
	err := ContractNotSet(ContractListing)
	assert.True(t, errors.Is(err, ErrContractNotSet))
	assert.Equal(t, "listing: contract address not set", err.Error())
}

func TestIPFSURL(t *testing.T) {
	assert.Equal(t, "", IPFSURL(""))
	assert.Equal(t, "https://ipfs.io/ipfs/bafy1", IPFSURL("bafy1"))

	b := BookingWithDetails{CID: "bafy2"}
	assert.Equal(t, "https://ipfs.io/ipfs/bafy2", b.ImageURL())

	l := Listing{}
	assert.Empty(t, l.ImageURL())
}
