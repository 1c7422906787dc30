package provider

import (
	"reflect"
	"testing"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
)

const vnpSuccessURL = "emotorent://payment/callback?vnp_Amount=150000000" +
	"&vnp_BankCode=NCB&vnp_CardType=ATM&vnp_PayDate=20250901102030" +
	"&vnp_ResponseCode=00&vnp_TmnCode=EMRS01&vnp_TransactionNo=14655421" +
	"&vnp_TxnRef=TX-1001&vnp_SecureHash=abc123"

func TestVNPay_ParseSuccess(t *testing.T) {
	cb, err := NewVNPay().Parse(vnpSuccessURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !cb.IsSuccess {
		t.Error("expected a success callback")
	}
	if cb.OrderRef != "TX-1001" {
		t.Errorf("expected order ref TX-1001, got %q", cb.OrderRef)
	}
	if cb.ProviderTxnID != "14655421" {
		t.Errorf("expected provider txn id 14655421, got %q", cb.ProviderTxnID)
	}
	if cb.ResponseCode != "00" {
		t.Errorf("expected response code 00, got %q", cb.ResponseCode)
	}
	if cb.Amount != 1500000 {
		t.Errorf("expected descaled amount 1500000, got %v", cb.Amount)
	}
	if cb.FailureReason != "" {
		t.Errorf("success callback should have no failure reason, got %q", cb.FailureReason)
	}
	if cb.RawFields["vnp_BankCode"] != "NCB" {
		t.Errorf("raw provider fields should be preserved, got %v", cb.RawFields)
	}
}

func TestVNPay_ParseUserCancelled(t *testing.T) {
	rawURL := "emotorent://payment/callback?vnp_TxnRef=TX-1002&vnp_ResponseCode=24"

	cb, err := NewVNPay().Parse(rawURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if cb.IsSuccess {
		t.Fatal("code 24 must not map to success")
	}
	if cb.FailureReason != "Khách hàng hủy giao dịch" {
		t.Errorf("unexpected failure reason: %q", cb.FailureReason)
	}
}

func TestVNPay_FailClosedOnUnknownCode(t *testing.T) {
	for _, code := range []string{"42", "XX", "000", "-1"} {
		rawURL := "emotorent://payment/callback?vnp_TxnRef=TX-1&vnp_ResponseCode=" + code

		cb, err := NewVNPay().Parse(rawURL)
		if err != nil {
			t.Fatalf("code %q: unexpected parse error: %v", code, err)
		}

		if cb.IsSuccess {
			t.Errorf("unknown code %q resolved to success", code)
		}
		if cb.FailureReason == "" {
			t.Errorf("unknown code %q produced no failure reason", code)
		}
		if cb.ResponseCode != code {
			t.Errorf("raw code %q must be preserved for diagnostics, got %q",
				code, cb.ResponseCode)
		}
	}
}

func TestVNPay_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		rawURL string
	}{
		{"no txn ref", "emotorent://payment/callback?vnp_ResponseCode=00"},
		{"no response code", "emotorent://payment/callback?vnp_TxnRef=TX-1"},
		{"no params at all", "emotorent://payment/callback"},
	}

	for _, tc := range cases {
		cb, err := NewVNPay().Parse(tc.rawURL)
		if err == nil {
			t.Errorf("%s: expected a parse error, got callback %+v", tc.name, cb)
			continue
		}
		if cb != nil {
			t.Errorf("%s: a failed parse must not produce a callback", tc.name)
		}

		code := errors.CodeOf(err)
		if code != errors.CodeMissingField && code != errors.CodeMalformedURL {
			t.Errorf("%s: unexpected error code %q", tc.name, code)
		}
	}
}

func TestVNPay_ParseIsIdempotent(t *testing.T) {
	p := NewVNPay()

	first, err := p.Parse(vnpSuccessURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	second, err := p.Parse(vnpSuccessURL)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing the same URL twice produced different callbacks:\n%+v\n%+v",
			first, second)
	}
}

func TestVNPay_TolerantOfExtraneousParamsAndOrder(t *testing.T) {
	reordered := "emotorent://payment/callback?foo=bar&vnp_ResponseCode=00" +
		"&utm_source=app&vnp_TxnRef=TX-1001&vnp_Amount=150000000" +
		"&vnp_TransactionNo=14655421"

	cb, err := NewVNPay().Parse(reordered)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !cb.IsSuccess || cb.OrderRef != "TX-1001" || cb.Amount != 1500000 {
		t.Errorf("reordered/extraneous params changed the result: %+v", cb)
	}
}
