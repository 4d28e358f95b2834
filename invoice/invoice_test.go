package invoice

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/hashing"
	"github.com/kirannarayanak/vyra/signer"
)

// fakeCaller records submissions and serves scripted view results.
type fakeCaller struct {
	submits     []vyra.ContractCall
	views       []vyra.ContractCall
	submitHash  common.Hash
	submitErr   error
	viewResults map[string][]interface{}
	viewErr     error
}

func (f *fakeCaller) Submit(_ context.Context, call vyra.ContractCall) (common.Hash, error) {
	f.submits = append(f.submits, call)
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return f.submitHash, nil
}

func (f *fakeCaller) Call(_ context.Context, call vyra.ContractCall) ([]interface{}, error) {
	f.views = append(f.views, call)
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return f.viewResults[call.Method], nil
}

// fakeProvider serves scripted receipts.
type fakeProvider struct {
	receipt *vyra.Receipt
	err     error
}

func (f *fakeProvider) GetBalance(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (f *fakeProvider) GetFeeData(context.Context) (*vyra.FeeData, error) {
	return &vyra.FeeData{GasPrice: big.NewInt(1)}, nil
}
func (f *fakeProvider) EstimateGas(context.Context, vyra.CallMsg) (uint64, error) {
	return 21000, nil
}
func (f *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(vyra.LocalDev.ChainID), nil
}
func (f *fakeProvider) WaitForTransaction(context.Context, common.Hash, uint64) (*vyra.Receipt, error) {
	return f.receipt, f.err
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

func TestCreateInvoice(t *testing.T) {
	caller := &fakeCaller{submitHash: common.HexToHash("0xabc1")}
	c, s := newTestCoordinator(t, caller)

	resp := c.CreateInvoice(context.Background(), vyra.InvoiceRequest{
		Amount:      "25.5",
		Description: "coffee subscription",
	})
	if !resp.Success {
		t.Fatalf("CreateInvoice failed: %+v", resp.Error)
	}

	inv := resp.Data
	if inv.Status != StatusSubmitted {
		t.Errorf("status = %s, want %s", inv.Status, StatusSubmitted)
	}
	if inv.Merchant != s.Address().Hex() {
		t.Errorf("merchant = %s, want signer %s", inv.Merchant, s.Address().Hex())
	}
	if inv.Nonce != 0 {
		t.Errorf("first nonce = %d, want 0", inv.Nonce)
	}
	if inv.Amount != "25.5" {
		t.Errorf("amount = %q, want 25.5", inv.Amount)
	}
	if resp.TxHash != caller.submitHash.Hex() {
		t.Errorf("txHash = %q, want %q", resp.TxHash, caller.submitHash.Hex())
	}
	if len(caller.submits) != 1 || caller.submits[0].Method != "createInvoice" {
		t.Fatalf("submits = %+v", caller.submits)
	}

	// The attached signature must recover to the merchant over the typed
	// creation digest.
	sig, err := hexutil.Decode(inv.Signature)
	if err != nil {
		t.Fatalf("signature not hex: %v", err)
	}
	amountWei, _ := vyra.ToWei(inv.Amount)
	msg := hashing.PaymentMessage{
		Signer:          s.Address(),
		Amount:          amountWei,
		DescriptionHash: hashing.HashString(inv.Description),
		Expiry:          inv.Expiry,
		Nonce:           inv.Nonce,
		ChainID:         big.NewInt(vyra.LocalDev.ChainID),
	}
	digest := hashing.TypedDigest(
		hashing.DomainSeparator(big.NewInt(vyra.LocalDev.ChainID), common.HexToAddress(vyra.LocalDev.POSAddress)),
		msg.Digest(),
	)
	recovered, err := signer.RecoverDigest(digest, sig)
	if err != nil {
		t.Fatalf("RecoverDigest error = %v", err)
	}
	if recovered != s.Address() {
		t.Errorf("signature recovers %s, want %s", recovered.Hex(), s.Address().Hex())
	}
}

func TestCreateInvoiceNoncesAdvance(t *testing.T) {
	caller := &fakeCaller{}
	c, _ := newTestCoordinator(t, caller)

	first := c.CreateInvoice(context.Background(), vyra.InvoiceRequest{Amount: "1", Description: "a"})
	second := c.CreateInvoice(context.Background(), vyra.InvoiceRequest{Amount: "1", Description: "a"})
	if !first.Success || !second.Success {
		t.Fatal("invoice creation failed")
	}
	if first.Data.Nonce != 0 || second.Data.Nonce != 1 {
		t.Errorf("nonces = %d, %d, want 0, 1", first.Data.Nonce, second.Data.Nonce)
	}
}

func TestCreateInvoiceLocalValidation(t *testing.T) {
	tests := []struct {
		name string
		req  vyra.InvoiceRequest
		code vyra.ErrorCode
	}{
		{"bad amount", vyra.InvoiceRequest{Amount: "abc", Description: "x"}, vyra.CodeInvalidAmount},
		{"zero amount", vyra.InvoiceRequest{Amount: "0", Description: "x"}, vyra.CodeInvalidAmount},
		{"empty description", vyra.InvoiceRequest{Amount: "1"}, vyra.CodeInvalidInput},
		{"past expiry", vyra.InvoiceRequest{Amount: "1", Description: "x", Expiry: 1000}, vyra.CodeInvalidInput},
		{"bad metadata", vyra.InvoiceRequest{Amount: "1", Description: "x",
			Metadata: &vyra.Metadata{Version: 9}}, vyra.CodeInvalidMetadata},
		{"foreign merchant", vyra.InvoiceRequest{Amount: "1", Description: "x",
			Merchant: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, vyra.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{}
			c, _ := newTestCoordinator(t, caller)

			resp := c.CreateInvoice(context.Background(), tt.req)
			if resp.Success {
				t.Fatal("invalid request accepted")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.code)
			}
			// Local failures must never reach the network.
			if len(caller.submits) != 0 || len(caller.views) != 0 {
				t.Errorf("network calls made: %d submits, %d views", len(caller.submits), len(caller.views))
			}
		})
	}
}

func TestCreateInvoiceNoSigner(t *testing.T) {
	caller := &fakeCaller{}
	c := New(vyra.LocalDev, caller)

	resp := c.CreateInvoice(context.Background(), vyra.InvoiceRequest{Amount: "1", Description: "x"})
	if resp.Success || resp.Error.Code != vyra.CodeWalletNotConnected {
		t.Errorf("resp = %+v, want WALLET_NOT_CONNECTED", resp.Error)
	}
}

func TestCreateInvoiceSubmitClassification(t *testing.T) {
	caller := &fakeCaller{submitErr: errors.New("execution reverted: invoice exists")}
	c, _ := newTestCoordinator(t, caller)

	resp := c.CreateInvoice(context.Background(), vyra.InvoiceRequest{Amount: "1", Description: "x"})
	if resp.Success {
		t.Fatal("failed submission reported success")
	}
	if resp.Error.Code != vyra.CodeContractReverted {
		t.Errorf("code = %q, want CONTRACT_REVERTED", resp.Error.Code)
	}
}

func TestProcessPayment(t *testing.T) {
	amount, _ := vyra.ToWei("10")
	caller := &fakeCaller{
		submitHash:  common.HexToHash("0xabc2"),
		viewResults: map[string][]interface{}{"invoiceAmount": {amount}},
	}
	c, _ := newTestCoordinator(t, caller)

	invoiceID := hashing.HashString("some invoice").Hex()
	customer := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	resp := c.ProcessPayment(context.Background(), invoiceID, customer)
	if !resp.Success {
		t.Fatalf("ProcessPayment failed: %+v", resp.Error)
	}
	if len(caller.submits) != 1 || caller.submits[0].Method != "processPayment" {
		t.Fatalf("submits = %+v", caller.submits)
	}
}

func TestProcessPaymentInvalidInputs(t *testing.T) {
	caller := &fakeCaller{}
	c, _ := newTestCoordinator(t, caller)

	resp := c.ProcessPayment(context.Background(), "0x1234", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	if resp.Success || resp.Error.Code != vyra.CodeInvalidInput {
		t.Errorf("short invoice id: %+v", resp.Error)
	}

	resp = c.ProcessPayment(context.Background(), hashing.HashString("x").Hex(), "nope")
	if resp.Success || resp.Error.Code != vyra.CodeInvalidAddress {
		t.Errorf("bad customer: %+v", resp.Error)
	}

	if len(caller.submits) != 0 {
		t.Error("invalid input reached submission")
	}
}

func TestProcessSplitPaymentRejectsBadSplitBeforeSigning(t *testing.T) {
	caller := &fakeCaller{}
	c, _ := newTestCoordinator(t, caller)

	resp := c.ProcessSplitPayment(context.Background(), vyra.SplitPaymentRequest{
		Recipients:  []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
		Percentages: []int64{5000, 4999},
		TotalAmount: "100",
	}, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	if resp.Success {
		t.Fatal("under-100% split accepted")
	}
	if resp.Error.Code != vyra.CodeInvalidSplit {
		t.Errorf("code = %q, want INVALID_SPLIT", resp.Error.Code)
	}
	if len(caller.submits) != 0 || len(caller.views) != 0 {
		t.Error("invalid split reached the network")
	}
}

func TestProcessSplitPayment(t *testing.T) {
	caller := &fakeCaller{submitHash: common.HexToHash("0xabc3")}
	c, _ := newTestCoordinator(t, caller)

	resp := c.ProcessSplitPayment(context.Background(), vyra.SplitPaymentRequest{
		Recipients:  []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
		Percentages: []int64{4000, 6000},
		TotalAmount: "100",
	}, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	if !resp.Success {
		t.Fatalf("ProcessSplitPayment failed: %+v", resp.Error)
	}
	if len(caller.submits) != 1 || caller.submits[0].Method != "processSplitPayment" {
		t.Fatalf("submits = %+v", caller.submits)
	}
}

func TestConfirm(t *testing.T) {
	hash := hashing.HashString("tx").Hex()

	t.Run("success", func(t *testing.T) {
		provider := &fakeProvider{receipt: &vyra.Receipt{Status: 1, BlockNumber: 7}}
		c, _ := newTestCoordinator(t, &fakeCaller{}, WithProvider(provider))

		resp := c.Confirm(context.Background(), hash, 1)
		if !resp.Success {
			t.Fatalf("Confirm failed: %+v", resp.Error)
		}
		if resp.Data.BlockNumber != 7 {
			t.Errorf("block = %d, want 7", resp.Data.BlockNumber)
		}
	})

	t.Run("reverted keeps hash", func(t *testing.T) {
		provider := &fakeProvider{receipt: &vyra.Receipt{Status: 0}}
		c, _ := newTestCoordinator(t, &fakeCaller{}, WithProvider(provider))

		resp := c.Confirm(context.Background(), hash, 1)
		if resp.Success {
			t.Fatal("reverted transaction confirmed")
		}
		if resp.Error.Code != vyra.CodeContractReverted {
			t.Errorf("code = %q, want CONTRACT_REVERTED", resp.Error.Code)
		}
		if resp.TxHash != hash {
			t.Errorf("txHash = %q, want %q", resp.TxHash, hash)
		}
	})

	t.Run("no provider", func(t *testing.T) {
		c, _ := newTestCoordinator(t, &fakeCaller{})
		resp := c.Confirm(context.Background(), hash, 1)
		if resp.Success {
			t.Fatal("confirmation without a provider succeeded")
		}
	})
}

func TestMerchantStats(t *testing.T) {
	earnings, _ := vyra.ToWei("1234.5")
	caller := &fakeCaller{viewResults: map[string][]interface{}{
		"getMerchantStats": {earnings, big.NewInt(42)},
	}}
	c, _ := newTestCoordinator(t, caller)

	resp := c.MerchantStats(context.Background())
	if !resp.Success {
		t.Fatalf("MerchantStats failed: %+v", resp.Error)
	}
	if resp.Data.TotalEarnings != "1234.5" || resp.Data.TotalTransactions != 42 {
		t.Errorf("stats = %+v", resp.Data)
	}
}

func TestPaymentReceiptNotFound(t *testing.T) {
	caller := &fakeCaller{viewResults: map[string][]interface{}{
		"payments": {common.Address{}, common.Address{}, big.NewInt(0), big.NewInt(0),
			big.NewInt(0), big.NewInt(0), false, common.Hash{}},
	}}
	c, _ := newTestCoordinator(t, caller)

	resp := c.PaymentReceipt(context.Background(), hashing.HashString("missing").Hex())
	if resp.Success || resp.Error.Code != vyra.CodeNotFound {
		t.Errorf("resp = %+v, want NOT_FOUND", resp.Error)
	}
}

func TestEventsEmitted(t *testing.T) {
	var events []vyra.Event
	caller := &fakeCaller{}
	c, _ := newTestCoordinator(t, caller, WithCallback(func(e vyra.Event) {
		events = append(events, e)
	}), WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }))

	c.CreateInvoice(context.Background(), vyra.InvoiceRequest{
		Amount: "1", Description: "x", Expiry: 1_700_003_600,
	})
	if len(events) != 2 {
		t.Fatalf("events = %d, want attempt + success", len(events))
	}
	if events[0].Type != vyra.EventAttempt || events[1].Type != vyra.EventSuccess {
		t.Errorf("event types = %v, %v", events[0].Type, events[1].Type)
	}
	if events[0].Operation != "create_invoice" {
		t.Errorf("operation = %q", events[0].Operation)
	}
}
