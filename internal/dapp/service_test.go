package dapp

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"bookchain/internal/logging"
	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	bob   = common.HexToAddress("0xBBBB000000000000000000000000000000000002")
)

type bookCall struct {
	listingID, start, end uint64
	value                 *big.Int
}

type fakeContracts struct {
	mu sync.Mutex

	chainID    uint64
	chainErr   error
	deployment models.Deployment

	members map[common.Address]uint64 // expiry
	buys    []*big.Int

	listings   map[uint64]*models.Listing
	listingErr map[uint64]error
	nextErr    error
	booked     map[uint64]bool // listing id -> unavailable
	availErr   error

	bookings   map[uint64]*models.Booking
	bookingErr map[uint64]error
	bookCalls  []bookCall
	created    []string

	reverted bool
	sendErr  error
	code     map[common.Address][]byte
	access   map[common.Address]int64

	// blocking hook for the scan guard test
	nextBookingGate chan struct{}
	blocks          []uint64
	nonce           uint64
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{
		chainID: 31337,
		deployment: models.Deployment{
			Membership: "0x00000000000000000000000000000000000000a1",
			Listing:    "0x00000000000000000000000000000000000000a2",
			Booking:    "0x00000000000000000000000000000000000000a3",
		},
		members:    map[common.Address]uint64{},
		listings:   map[uint64]*models.Listing{},
		listingErr: map[uint64]error{},
		booked:     map[uint64]bool{},
		bookings:   map[uint64]*models.Booking{},
		bookingErr: map[uint64]error{},
		code:       map[common.Address][]byte{},
		access:     map[common.Address]int64{},
	}
}

func (f *fakeContracts) tx(value *big.Int) *types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce++
	to := common.HexToAddress(f.deployment.Booking)
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, To: &to, Value: value, Gas: 21000, GasPrice: big.NewInt(1)})
}

func (f *fakeContracts) ChainID(ctx context.Context) (uint64, error) {
	return f.chainID, f.chainErr
}

func (f *fakeContracts) BlockNumber(ctx context.Context) (uint64, error) {
	return 1, nil
}

func (f *fakeContracts) Deployment() models.Deployment {
	return f.deployment
}

func (f *fakeContracts) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return f.code[addr], nil
}

func (f *fakeContracts) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if f.reverted {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: tx.Hash()}, models.ErrTxReverted
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (f *fakeContracts) WatchBlocks(ctx context.Context, interval time.Duration, fn func(ctx context.Context, block uint64)) error {
	for _, b := range f.blocks {
		fn(ctx, b)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeContracts) IsMember(ctx context.Context, account common.Address) (bool, error) {
	_, ok := f.members[account]
	return ok, nil
}

func (f *fakeContracts) MembershipExpiresAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.members[account], nil
}

func (f *fakeContracts) BecomeMember(ctx context.Context, value *big.Int) (*types.Transaction, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.buys = append(f.buys, value)
	return f.tx(value), nil
}

func (f *fakeContracts) NextListingID(ctx context.Context) (uint64, error) {
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	return uint64(len(f.listings) + len(f.listingErr) + 1), nil
}

func (f *fakeContracts) GetListing(ctx context.Context, id uint64) (*models.Listing, error) {
	if err := f.listingErr[id]; err != nil {
		return nil, err
	}
	l, ok := f.listings[id]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return l, nil
}

func (f *fakeContracts) IsAvailable(ctx context.Context, listingID, start, end uint64) (bool, error) {
	if f.availErr != nil {
		return false, f.availErr
	}
	return !f.booked[listingID], nil
}

func (f *fakeContracts) CreateListing(ctx context.Context, pricePerHour *big.Int, cid string) (*types.Transaction, error) {
	f.created = append(f.created, cid)
	return f.tx(nil), nil
}

func (f *fakeContracts) NextBookingID(ctx context.Context) (uint64, error) {
	if f.nextBookingGate != nil {
		<-f.nextBookingGate
	}
	return uint64(len(f.bookings) + len(f.bookingErr) + 1), nil
}

func (f *fakeContracts) GetBooking(ctx context.Context, id uint64) (*models.Booking, error) {
	if err := f.bookingErr[id]; err != nil {
		return nil, err
	}
	return f.bookings[id], nil
}

func (f *fakeContracts) Book(ctx context.Context, listingID, start, end uint64, value *big.Int) (*types.Transaction, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.bookCalls = append(f.bookCalls, bookCall{listingID, start, end, value})
	return f.tx(value), nil
}

func (f *fakeContracts) AccessBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return big.NewInt(f.access[owner]), nil
}

func newTestService(f *fakeContracts) *Service {
	return NewService(f, Options{
		ChainID:      31337,
		PollInterval: time.Millisecond,
		Logger:       logging.Discard(),
		Now:          func() time.Time { return time.Date(2025, 10, 31, 15, 0, 0, 0, time.UTC) },
	})
}

func TestMembershipStatus(t *testing.T) {
	f := newFakeContracts()
	f.members[alice] = 1761868800
	s := newTestService(f)
	ctx := context.Background()

	m, err := s.MembershipStatus(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, m.State)
	assert.Equal(t, uint64(1761868800), m.ExpiresAt)
	assert.True(t, m.ShowExpiry())

	m, err = s.MembershipStatus(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "Not a member", m.Label())
	assert.Equal(t, "Buy membership", m.ActionLabel())

	m, err = s.MembershipStatus(ctx, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, "Connect wallet", m.Label())

	f.chainID = 1
	m, err = s.MembershipStatus(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Wrong network", m.Label())

	f.deployment.Membership = ""
	m, err = s.MembershipStatus(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Contract not set", m.Label())
}

func TestRequireMember(t *testing.T) {
	f := newFakeContracts()
	f.members[alice] = 1
	s := newTestService(f)

	assert.NoError(t, s.RequireMember(context.Background(), alice))

	err := s.RequireMember(context.Background(), bob)
	assert.ErrorIs(t, err, models.ErrNotMember)
	assert.Equal(t, MsgBecomeMember, err.Error())

	assert.ErrorIs(t, s.RequireMember(context.Background(), common.Address{}), models.ErrNotConnected)
}

func TestBuyMembership(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)

	var states []models.TxState
	res, err := s.BuyMembership(context.Background(), "", 0, func(r models.TxResult) {
		states = append(states, r.State)
	})
	require.NoError(t, err)
	assert.Equal(t, models.TxConfirmed, res.State)
	assert.True(t, res.HasHash())
	assert.Equal(t, []models.TxState{models.TxPending, models.TxConfirming, models.TxConfirmed}, states)

	require.Len(t, f.buys, 1)
	assert.Equal(t, "1000000000000000000", f.buys[0].String())

	_, err = s.BuyMembership(context.Background(), "0.5", 6, nil)
	require.NoError(t, err)
	assert.Equal(t, "500000", f.buys[1].String())
}

func TestBuyMembership_Failures(t *testing.T) {
	f := newFakeContracts()
	f.sendErr = errors.New("insufficient funds")
	s := newTestService(f)

	var last models.TxResult
	_, err := s.BuyMembership(context.Background(), "1", 18, func(r models.TxResult) { last = r })
	assert.EqualError(t, err, "insufficient funds")
	assert.Equal(t, models.TxFailed, last.State)
	assert.False(t, last.HasHash())

	f.sendErr = nil
	f.reverted = true
	res, err := s.BuyMembership(context.Background(), "1", 18, nil)
	assert.ErrorIs(t, err, models.ErrTxReverted)
	assert.Equal(t, models.TxFailed, res.State)
	assert.True(t, res.HasHash())
	assert.Equal(t, "Failed ✗", res.Label())

	f.chainID = 5
	_, err = s.BuyMembership(context.Background(), "1", 18, nil)
	assert.ErrorIs(t, err, models.ErrWrongNetwork)

	f.deployment.Membership = ""
	_, err = s.BuyMembership(context.Background(), "1", 18, nil)
	assert.ErrorIs(t, err, models.ErrContractNotSet)
}

func TestListings(t *testing.T) {
	f := newFakeContracts()
	f.listings[1] = &models.Listing{ID: 1, PricePerHour: big.NewInt(10), CID: "a", Active: true}
	f.listings[2] = &models.Listing{ID: 2, PricePerHour: big.NewInt(10), CID: "b", Active: false}
	f.listingErr[3] = errors.New("rpc timeout")
	f.listings[4] = &models.Listing{ID: 4, PricePerHour: big.NewInt(20), CID: "d", Active: true}
	s := newTestService(f)

	listings, err := s.Listings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, uint64(1), listings[0].ID)
	assert.Equal(t, uint64(4), listings[1].ID)
}

func TestListings_Guards(t *testing.T) {
	f := newFakeContracts()
	f.listings[1] = &models.Listing{ID: 1, Active: true}
	s := newTestService(f)

	f.chainID = 1
	listings, err := s.Listings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)

	f.chainID = 31337
	f.nextErr = errors.New("boom")
	_, err = s.Listings(context.Background())
	assert.EqualError(t, err, "boom")

	f.deployment.Listing = ""
	listings, err = s.Listings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)

	_, err = s.Listing(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrContractNotSet)

	_, err = s.Listing(context.Background(), 0)
	assert.Error(t, err)
}

func TestCheckDay(t *testing.T) {
	f := newFakeContracts()
	f.booked[2] = true
	s := newTestService(f)
	ctx := context.Background()

	a := s.CheckDay(ctx, 1, "2025-10-31")
	assert.True(t, a.Checked)
	assert.True(t, a.Available)
	assert.Empty(t, a.Message)

	a = s.CheckDay(ctx, 2, "2025-10-31")
	assert.False(t, a.Available)
	assert.Equal(t, MsgAlreadyBooked, a.Message)

	a = s.CheckDay(ctx, 1, "")
	assert.False(t, a.Checked)

	f.availErr = errors.New("rpc down")
	a = s.CheckDay(ctx, 1, "2025-10-31")
	assert.Equal(t, MsgCheckFailed, a.Message)
	assert.Error(t, a.Err)

	// no listing contract, no check
	f.deployment.Listing = ""
	a = s.CheckDay(ctx, 1, "2025-10-31")
	assert.False(t, a.Checked)
	assert.Empty(t, a.Message)
	assert.NoError(t, a.Err)
}

func TestBookingCost(t *testing.T) {
	tests := []struct {
		name       string
		price      int64
		start, end uint64
		want       int64
		wantErr    bool
	}{
		{"full day", 1000, 0, 86400, 24000, false},
		{"partial hour rounds up", 1000, 0, 3601, 2000, false},
		{"single second", 7, 10, 11, 7, false},
		{"empty range", 1000, 10, 10, 0, true},
		{"inverted range", 1000, 20, 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BookingCost(big.NewInt(tt.price), tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidDuration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestBookDay(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)
	listing := &models.Listing{ID: 3, PricePerHour: big.NewInt(1000), Active: true}

	res, err := s.BookDay(context.Background(), listing, "2025-10-31", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TxConfirmed, res.State)

	require.Len(t, f.bookCalls, 1)
	call := f.bookCalls[0]
	assert.Equal(t, uint64(3), call.listingID)
	assert.Equal(t, uint64(1761868800), call.start)
	assert.Equal(t, uint64(1761868800+86400), call.end)
	assert.Equal(t, int64(24000), call.value.Int64())
}

func TestBookDay_Rejections(t *testing.T) {
	f := newFakeContracts()
	f.booked[3] = true
	s := newTestService(f)
	listing := &models.Listing{ID: 3, PricePerHour: big.NewInt(1000), Active: true}
	ctx := context.Background()

	_, err := s.BookDay(ctx, listing, "", nil)
	assert.ErrorIs(t, err, models.ErrNoDateSelected)

	_, err = s.BookDay(ctx, listing, "2025-10-31", nil)
	assert.ErrorIs(t, err, models.ErrUnavailable)
	assert.Equal(t, MsgNoLongerAvailable, err.Error())

	f.booked[3] = false
	f.availErr = errors.New("rpc down")
	_, err = s.BookDay(ctx, listing, "2025-10-31", nil)
	assert.Equal(t, MsgCheckFailed, err.Error())

	_, err = s.BookRange(ctx, listing, 100, 100, nil)
	assert.ErrorIs(t, err, models.ErrInvalidDuration)

	assert.Empty(t, f.bookCalls)
}

func TestBookRaw(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)

	_, err := s.Book(context.Background(), 1, 100, 200, "", nil)
	require.NoError(t, err)
	_, err = s.Book(context.Background(), 1, 100, 200, "0.25", nil)
	require.NoError(t, err)

	require.Len(t, f.bookCalls, 2)
	assert.Nil(t, f.bookCalls[0].value)
	assert.Equal(t, "250000000000000000", f.bookCalls[1].value.String())

	_, err = s.Book(context.Background(), 0, 100, 200, "", nil)
	assert.Error(t, err)
}

func TestMyBookings(t *testing.T) {
	f := newFakeContracts()
	f.listings[1] = &models.Listing{ID: 1, PricePerHour: big.NewInt(1000), CID: "bafy1", Active: true}
	f.bookings[1] = &models.Booking{ID: 1, Renter: alice, ListingID: 1, StartTs: 100, EndTs: 3700, Amount: big.NewInt(1000)}
	f.bookings[2] = &models.Booking{ID: 2, Renter: bob, ListingID: 1, StartTs: 100, EndTs: 3700, Amount: big.NewInt(1000)}
	f.bookingErr[3] = errors.New("rpc timeout")
	f.bookings[4] = &models.Booking{ID: 4, Renter: alice, ListingID: 9, StartTs: 100, EndTs: 3700, Amount: big.NewInt(1000)}
	f.bookings[5] = &models.Booking{ID: 5, Renter: alice, ListingID: 1, StartTs: 7200, EndTs: 10800, Amount: big.NewInt(1000), Released: true}
	s := newTestService(f)

	bookings, err := s.MyBookings(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, uint64(1), bookings[0].ID)
	assert.Equal(t, "bafy1", bookings[0].CID)
	assert.Equal(t, int64(1000), bookings[0].PricePerHour.Int64())
	assert.Equal(t, uint64(5), bookings[1].ID)
	assert.True(t, bookings[1].Released)
}

func TestMyBookings_Guards(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)
	ctx := context.Background()

	_, err := s.MyBookings(ctx, common.Address{})
	assert.ErrorIs(t, err, models.ErrNotConnected)

	f.chainID = 1
	_, err = s.MyBookings(ctx, alice)
	assert.ErrorIs(t, err, models.ErrWrongNetwork)

	f.deployment.Listing = ""
	_, err = s.MyBookings(ctx, alice)
	assert.ErrorIs(t, err, models.ErrContractNotSet)
}

func TestMyBookings_ScanGuard(t *testing.T) {
	f := newFakeContracts()
	f.nextBookingGate = make(chan struct{})
	s := newTestService(f)

	done := make(chan error, 1)
	go func() {
		_, err := s.MyBookings(context.Background(), alice)
		done <- err
	}()

	require.Eventually(t, func() bool { return s.scanning.Load() }, time.Second, time.Millisecond)

	_, err := s.MyBookings(context.Background(), alice)
	assert.ErrorIs(t, err, models.ErrScanInProgress)

	close(f.nextBookingGate)
	require.NoError(t, <-done)
	assert.False(t, s.scanning.Load())
}

func TestWatchMyBookings(t *testing.T) {
	f := newFakeContracts()
	f.listings[1] = &models.Listing{ID: 1, PricePerHour: big.NewInt(1), Active: true}
	f.bookings[1] = &models.Booking{ID: 1, Renter: alice, ListingID: 1, StartTs: 1, EndTs: 2, Amount: big.NewInt(1)}
	f.blocks = []uint64{11, 12}
	s := newTestService(f)

	ctx, cancel := context.WithCancel(context.Background())
	loads := 0
	err := s.WatchMyBookings(ctx, alice, func(b []models.BookingWithDetails, err error) {
		require.NoError(t, err)
		assert.Len(t, b, 1)
		loads++
		if loads == 3 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, loads)
}

func TestCreateListing(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)

	res, err := s.CreateListing(context.Background(), "0.01", "bafy", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TxConfirmed, res.State)
	assert.Equal(t, []string{"bafy"}, f.created)

	_, err = s.CreateListing(context.Background(), "abc", "bafy", nil)
	assert.Error(t, err)
}

func TestAccessTokens(t *testing.T) {
	f := newFakeContracts()
	s := newTestService(f)

	_, err := s.AccessTokens(context.Background(), alice)
	assert.ErrorIs(t, err, models.ErrContractNotSet)

	f.deployment.AccessNFT = "0x00000000000000000000000000000000000000a4"
	f.access[alice] = 2
	n, err := s.AccessTokens(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n.Int64())
}

func TestVerifyDeployment(t *testing.T) {
	f := newFakeContracts()
	f.code[common.HexToAddress(f.deployment.Membership)] = []byte{1, 2, 3}
	f.code[common.HexToAddress(f.deployment.Listing)] = []byte{1}
	s := newTestService(f)

	report, err := s.VerifyDeployment(context.Background())
	assert.ErrorIs(t, err, models.ErrNoCode)
	assert.Contains(t, err.Error(), models.ContractBooking)
	require.NotNil(t, report)
	assert.Equal(t, uint64(31337), report.ChainID)
	require.Len(t, report.Contracts, 4)
	assert.Equal(t, 3, report.Contracts[0].CodeSize)
	assert.False(t, report.Contracts[3].Configured)

	f.code[common.HexToAddress(f.deployment.Booking)] = []byte{1}
	_, err = s.VerifyDeployment(context.Background())
	assert.NoError(t, err)
}

func TestDateOptions(t *testing.T) {
	s := newTestService(newFakeContracts())
	opts := s.DateOptions(14)
	require.Len(t, opts, 14)
	assert.Equal(t, "2025-10-31", opts[0].Value)
	assert.Equal(t, "31 October 2025", opts[0].Label)
	assert.Equal(t, "2025-11-13", opts[13].Value)
}
