package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/signer"
)

type fakeCaller struct {
	mu          sync.Mutex
	submits     []vyra.ContractCall
	views       []vyra.ContractCall
	submitHash  common.Hash
	submitErr   error
	viewResults map[string][]interface{}
	viewErr     error
}

func (f *fakeCaller) Submit(_ context.Context, call vyra.ContractCall) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, call)
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return f.submitHash, nil
}

func (f *fakeCaller) Call(_ context.Context, call vyra.ContractCall) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, call)
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return f.viewResults[call.Method], nil
}

func (f *fakeCaller) setBalance(wei *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewResults["balanceOf"] = []interface{}{wei}
}

func (f *fakeCaller) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

type fakeProvider struct {
	balance *big.Int
	gas     uint64
	gasErr  error
	feeData *vyra.FeeData
}

func (f *fakeProvider) GetBalance(context.Context, common.Address) (*big.Int, error) {
	return f.balance, nil
}
func (f *fakeProvider) GetFeeData(context.Context) (*vyra.FeeData, error) {
	return f.feeData, nil
}
func (f *fakeProvider) EstimateGas(context.Context, vyra.CallMsg) (uint64, error) {
	return f.gas, f.gasErr
}
func (f *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(vyra.LocalDev.ChainID), nil
}
func (f *fakeProvider) WaitForTransaction(context.Context, common.Hash, uint64) (*vyra.Receipt, error) {
	return nil, errors.New("not implemented")
}

func newTestCoordinator(t *testing.T, caller *fakeCaller, opts ...Option) (*Coordinator, *signer.Signer) {
	t.Helper()
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithSigner(s)}, opts...)
	return New(vyra.LocalDev, caller, opts...), s
}

func callerWithBalance(amount string) *fakeCaller {
	wei, _ := vyra.ToWei(amount)
	return &fakeCaller{
		submitHash:  common.HexToHash("0xaa01"),
		viewResults: map[string][]interface{}{"balanceOf": {wei}},
	}
}

func TestSendPayment(t *testing.T) {
	caller := callerWithBalance("100")
	c, _ := newTestCoordinator(t, caller)

	resp := c.SendPayment(context.Background(), vyra.PaymentRequest{
		To:     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Amount: "25.5",
	})
	if !resp.Success {
		t.Fatalf("SendPayment failed: %+v", resp.Error)
	}
	if resp.TxHash != caller.submitHash.Hex() {
		t.Errorf("txHash = %q", resp.TxHash)
	}
	if len(caller.submits) != 1 || caller.submits[0].Method != "transfer" {
		t.Fatalf("submits = %+v", caller.submits)
	}
	if caller.submits[0].Contract != common.HexToAddress(vyra.LocalDev.TokenAddress) {
		t.Error("transfer sent to the wrong contract")
	}
}

func TestSendPaymentInsufficientBalance(t *testing.T) {
	caller := callerWithBalance("10")
	c, _ := newTestCoordinator(t, caller)

	resp := c.SendPayment(context.Background(), vyra.PaymentRequest{
		To:     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Amount: "25.5",
	})
	if resp.Success {
		t.Fatal("unfunded transfer accepted")
	}
	if resp.Error.Code != vyra.CodeInsufficientBalance {
		t.Errorf("code = %q, want INSUFFICIENT_BALANCE", resp.Error.Code)
	}
	if resp.Error.Details["balance"] != "10.0" || resp.Error.Details["required"] != "25.5" {
		t.Errorf("details = %v", resp.Error.Details)
	}
	// The failure is local: the balance view runs, the transfer never does.
	if len(caller.submits) != 0 {
		t.Error("unfunded transfer reached submission")
	}
}

func TestSendPaymentValidation(t *testing.T) {
	tests := []struct {
		name string
		req  vyra.PaymentRequest
		code vyra.ErrorCode
	}{
		{"bad recipient", vyra.PaymentRequest{To: "nope", Amount: "1"}, vyra.CodeInvalidAddress},
		{"bad checksum", vyra.PaymentRequest{To: "0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Amount: "1"}, vyra.CodeInvalidAddress},
		{"bad amount", vyra.PaymentRequest{To: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Amount: "-1"}, vyra.CodeInvalidAmount},
		{"bad metadata", vyra.PaymentRequest{To: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Amount: "1",
			Metadata: &vyra.Metadata{Version: 3}}, vyra.CodeInvalidMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := callerWithBalance("100")
			c, _ := newTestCoordinator(t, caller)

			resp := c.SendPayment(context.Background(), tt.req)
			if resp.Success {
				t.Fatal("invalid request accepted")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.code)
			}
			if len(caller.submits) != 0 || len(caller.views) != 0 {
				t.Error("invalid request reached the network")
			}
		})
	}
}

func TestSendPaymentNoSigner(t *testing.T) {
	c := New(vyra.LocalDev, callerWithBalance("100"))
	resp := c.SendPayment(context.Background(), vyra.PaymentRequest{
		To: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Amount: "1",
	})
	if resp.Success || resp.Error.Code != vyra.CodeWalletNotConnected {
		t.Errorf("resp = %+v, want WALLET_NOT_CONNECTED", resp.Error)
	}
}

func TestEstimateGasForPayment(t *testing.T) {
	provider := &fakeProvider{
		gas:     51000,
		feeData: &vyra.FeeData{GasPrice: big.NewInt(2_000_000_000)},
	}
	c, _ := newTestCoordinator(t, callerWithBalance("100"), WithProvider(provider))

	resp := c.EstimateGasForPayment(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "1")
	if !resp.Success {
		t.Fatalf("estimate failed: %+v", resp.Error)
	}
	if resp.Data.GasLimit != "51000" {
		t.Errorf("gasLimit = %q", resp.Data.GasLimit)
	}
	// 51000 gas * 2 gwei = 0.000102 in token units.
	if resp.Data.VyrCost != "0.000102" {
		t.Errorf("vyrCost = %q, want 0.000102", resp.Data.VyrCost)
	}
}

func TestEstimateGasForPaymentRevert(t *testing.T) {
	provider := &fakeProvider{gasErr: errors.New("execution reverted")}
	c, _ := newTestCoordinator(t, callerWithBalance("100"), WithProvider(provider))

	resp := c.EstimateGasForPayment(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "1")
	if resp.Success || resp.Error.Code != vyra.CodeGasEstimateFailed {
		t.Errorf("resp = %+v, want GAS_ESTIMATE_FAILED", resp.Error)
	}
}

func TestVyraBalance(t *testing.T) {
	c, _ := newTestCoordinator(t, callerWithBalance("42.5"))
	resp := c.VyraBalance(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	if !resp.Success || resp.Data != "42.5" {
		t.Errorf("resp = %+v, want 42.5", resp)
	}
}

func TestInfo(t *testing.T) {
	native, _ := vyra.ToWei("3")
	provider := &fakeProvider{balance: native}
	c, s := newTestCoordinator(t, callerWithBalance("42.5"), WithProvider(provider))

	resp := c.Info(context.Background())
	if !resp.Success {
		t.Fatalf("Info failed: %+v", resp.Error)
	}
	if resp.Data.Address != s.Address().Hex() {
		t.Errorf("address = %s", resp.Data.Address)
	}
	if resp.Data.VyraBalance != "42.5" || resp.Data.Balance != "3.0" {
		t.Errorf("balances = %+v", resp.Data)
	}
}

func TestSignAndVerifyMessage(t *testing.T) {
	c, s := newTestCoordinator(t, callerWithBalance("1"))

	signed := c.SignMessage("hello")
	if !signed.Success {
		t.Fatalf("SignMessage failed: %+v", signed.Error)
	}

	verified := c.VerifyMessage("hello", signed.Data, s.Address().Hex())
	if !verified.Success || !verified.Data {
		t.Errorf("own signature did not verify: %+v", verified)
	}

	tampered := c.VerifyMessage("hell0", signed.Data, s.Address().Hex())
	if tampered.Success && tampered.Data {
		t.Error("tampered message verified")
	}

	bad := c.VerifyMessage("hello", "zz", s.Address().Hex())
	if bad.Success || bad.Error.Code != vyra.CodeMessageVerifyFailed {
		t.Errorf("malformed signature: %+v", bad.Error)
	}
}

func TestWatchBalance(t *testing.T) {
	caller := callerWithBalance("1")
	c, _ := newTestCoordinator(t, caller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	err := c.WatchBalance(ctx, 5*time.Millisecond, func(balance string) {
		mu.Lock()
		seen = append(seen, balance)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("WatchBalance error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	two, _ := vyra.ToWei("2")
	caller.setBalance(two)

	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("seen = %v, want initial reading plus change", seen)
	}
	if seen[0] != "1.0" || seen[1] != "2.0" {
		t.Errorf("seen = %v, want [1.0 2.0 ...]", seen)
	}

	watchErr := New(vyra.LocalDev, caller).WatchBalance(ctx, time.Second, func(string) {})
	if !errors.Is(watchErr, vyra.ErrNotConnected) {
		t.Errorf("WatchBalance without signer = %v, want ErrNotConnected", watchErr)
	}
}
