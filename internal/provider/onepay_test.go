package provider

import (
	"testing"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
)

func TestOnePay_ParseSuccess(t *testing.T) {
	rawURL := "emotorent://payment/callback?vpc_Amount=50000000" +
		"&vpc_MerchTxnRef=TX-2001&vpc_TransactionNo=987654" +
		"&vpc_TxnResponseCode=0&vpc_Message=Approved"

	cb, err := NewOnePay().Parse(rawURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !cb.IsSuccess {
		t.Error("expected a success callback")
	}
	if cb.OrderRef != "TX-2001" {
		t.Errorf("expected order ref TX-2001, got %q", cb.OrderRef)
	}
	if cb.Amount != 500000 {
		t.Errorf("expected descaled amount 500000, got %v", cb.Amount)
	}
	if cb.RawFields["vpc_Message"] != "Approved" {
		t.Errorf("raw provider fields should be preserved, got %v", cb.RawFields)
	}
}

func TestOnePay_PaddedSuccessCode(t *testing.T) {
	rawURL := "emotorent://payment/callback?vpc_MerchTxnRef=TX-2002" +
		"&vpc_TxnResponseCode=00"

	cb, err := NewOnePay().Parse(rawURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !cb.IsSuccess {
		t.Error("zero-padded approval code must still map to success")
	}
}

func TestOnePay_UserCancelled(t *testing.T) {
	rawURL := "emotorent://payment/callback?vpc_MerchTxnRef=TX-2003" +
		"&vpc_TxnResponseCode=99"

	cb, err := NewOnePay().Parse(rawURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if cb.IsSuccess {
		t.Fatal("code 99 must not map to success")
	}
	if cb.FailureReason != "Người dùng hủy giao dịch" {
		t.Errorf("unexpected failure reason: %q", cb.FailureReason)
	}
}

func TestOnePay_FailClosedOnUnknownCode(t *testing.T) {
	rawURL := "emotorent://payment/callback?vpc_MerchTxnRef=TX-2004" +
		"&vpc_TxnResponseCode=QQ"

	cb, err := NewOnePay().Parse(rawURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if cb.IsSuccess {
		t.Error("unknown code resolved to success")
	}
	if cb.FailureReason == "" {
		t.Error("unknown code produced no failure reason")
	}
}

func TestOnePay_MissingMerchTxnRef(t *testing.T) {
	_, err := NewOnePay().Parse("emotorent://payment/callback?vpc_TxnResponseCode=0")
	if errors.CodeOf(err) != errors.CodeMissingField {
		t.Errorf("expected missing-field error, got %v", err)
	}
}
