package provider

import (
	"fmt"
	"strings"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

const (
	vpcMerchTxnRef     = "vpc_MerchTxnRef"
	vpcTxnResponseCode = "vpc_TxnResponseCode"
	vpcTransactionNo   = "vpc_TransactionNo"
	vpcAmount          = "vpc_Amount"

	vpcSuccessCode = "0"
)

var vpcResponseMessages = map[string]string{
	"1":  "Ngân hàng phát hành từ chối giao dịch",
	"3":  "Không nhận được phản hồi từ ngân hàng",
	"4":  "Thẻ đã hết hạn sử dụng",
	"5":  "Tài khoản không đủ số dư để thanh toán",
	"7":  "Lỗi xử lý tại hệ thống thanh toán",
	"8":  "Số thẻ không hợp lệ",
	"9":  "Tên chủ thẻ không hợp lệ",
	"10": "Thẻ bị khóa hoặc báo mất",
	"13": "Giao dịch vượt quá hạn mức trong ngày",
	"21": "Tài khoản không đủ số dư",
	"99": "Người dùng hủy giao dịch",
	"B":  "Xác thực 3D-Secure không thành công",
	"F":  "Xác thực giao dịch không thành công",
}

// OnePay handles the second gateway variant. Same redirect mechanism as
// VNPay but a different parameter namespace and code table; OnePay trims
// leading zeros off its response codes, so "0" not "00" is success.
type OnePay struct{}

func NewOnePay() *OnePay {
	return &OnePay{}
}

func (p *OnePay) Provider() types.Provider {
	return types.ProviderOnePay
}

func (p *OnePay) Parse(rawURL string) (*types.CanonicalCallback, error) {
	query, err := callbackQuery(rawURL)
	if err != nil {
		return nil, err
	}

	merchTxnRef := query.Get(vpcMerchTxnRef)
	if merchTxnRef == "" {
		return nil, missingField(types.ProviderOnePay, vpcMerchTxnRef)
	}

	code := query.Get(vpcTxnResponseCode)
	if code == "" {
		return nil, missingField(types.ProviderOnePay, vpcTxnResponseCode)
	}

	code = normalizeVpcCode(code)

	cb := &types.CanonicalCallback{
		IsSuccess:     code == vpcSuccessCode,
		OrderRef:      merchTxnRef,
		ProviderTxnID: query.Get(vpcTransactionNo),
		Amount:        descaleAmount(query.Get(vpcAmount)),
		ResponseCode:  code,
		RawFields:     rawFields(query),
	}

	if !cb.IsSuccess {
		if msg, ok := vpcResponseMessages[code]; ok {
			cb.FailureReason = msg
		} else {
			cb.FailureReason = fmt.Sprintf("Giao dịch không thành công (mã %s)", code)
		}
	}

	return cb, nil
}

// normalizeVpcCode strips leading zeros the gateway occasionally pads numeric
// codes with ("00" and "0" are the same approval code).
func normalizeVpcCode(code string) string {
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
