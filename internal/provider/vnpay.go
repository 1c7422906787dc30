package provider

import (
	"fmt"
	"strconv"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

const (
	vnpTxnRef        = "vnp_TxnRef"
	vnpResponseCode  = "vnp_ResponseCode"
	vnpTransactionNo = "vnp_TransactionNo"
	vnpAmount        = "vnp_Amount"

	vnpSuccessCode = "00"
)

// vnpResponseMessages maps every documented VNPay response code to the user
// message shown on failure. Codes outside this table fail closed with a
// generic message that keeps the raw code.
var vnpResponseMessages = map[string]string{
	"07": "Giao dịch bị nghi ngờ gian lận",
	"09": "Thẻ/Tài khoản chưa đăng ký dịch vụ InternetBanking",
	"10": "Xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	"11": "Đã hết hạn chờ thanh toán",
	"12": "Thẻ/Tài khoản bị khóa",
	"13": "Sai mật khẩu xác thực giao dịch (OTP)",
	"24": "Khách hàng hủy giao dịch",
	"51": "Tài khoản không đủ số dư để thực hiện giao dịch",
	"65": "Tài khoản đã vượt quá hạn mức giao dịch trong ngày",
	"75": "Ngân hàng thanh toán đang bảo trì",
	"79": "Sai mật khẩu thanh toán quá số lần quy định",
	"99": "Giao dịch không thành công",
}

type VNPay struct{}

func NewVNPay() *VNPay {
	return &VNPay{}
}

func (p *VNPay) Provider() types.Provider {
	return types.ProviderVNPay
}

func (p *VNPay) Parse(rawURL string) (*types.CanonicalCallback, error) {
	query, err := callbackQuery(rawURL)
	if err != nil {
		return nil, err
	}

	txnRef := query.Get(vnpTxnRef)
	if txnRef == "" {
		return nil, missingField(types.ProviderVNPay, vnpTxnRef)
	}

	code := query.Get(vnpResponseCode)
	if code == "" {
		return nil, missingField(types.ProviderVNPay, vnpResponseCode)
	}

	cb := &types.CanonicalCallback{
		IsSuccess:     code == vnpSuccessCode,
		OrderRef:      txnRef,
		ProviderTxnID: query.Get(vnpTransactionNo),
		Amount:        descaleAmount(query.Get(vnpAmount)),
		ResponseCode:  code,
		RawFields:     rawFields(query),
	}

	if !cb.IsSuccess {
		cb.FailureReason = vnpFailureReason(code)
	}

	return cb, nil
}

func vnpFailureReason(code string) string {
	if msg, ok := vnpResponseMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Giao dịch không thành công (mã %s)", code)
}

// descaleAmount converts a x100-scaled provider amount to the canonical
// currency unit. Unparsable amounts descale to zero; the backend is the
// authority on amount correctness.
func descaleAmount(scaled string) float64 {
	if scaled == "" {
		return 0
	}

	value, err := strconv.ParseFloat(scaled, 64)
	if err != nil {
		return 0
	}

	return value / 100
}
