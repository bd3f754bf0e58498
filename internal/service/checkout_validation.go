package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// 结算表单校验文案
const (
	MsgPhoneRequired    = "Phone number is required."
	MsgPhoneInvalid     = "Please enter a valid M-Pesa number (e.g., 0712...)"
	MsgLocationRequired = "Location is required."
	MsgLocationTooShort = "Location must be at least 3 characters."
)

// 结算表单字段名
const (
	FieldPhone    = "phone"
	FieldLocation = "location"
)

const (
	minLocationRunes = 3
	minPhoneRunes    = 10
)

var (
	localPhoneRe = regexp.MustCompile(`^(254|0)(1|7)\d{8}$`)
	intlPhoneRe  = regexp.MustCompile(`^\+254(1|7)\d{8}$`)
)

// CheckoutInput 买家填写的结算信息
type CheckoutInput struct {
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// FieldErrors 字段级校验错误
type FieldErrors map[string]string

// ValidatePhone 校验肯尼亚 M-Pesa 手机号，返回空串表示通过
func ValidatePhone(phone string) string {
	stripped := phoneSeparatorRe.ReplaceAllString(phone, "")
	if stripped == "" {
		return MsgPhoneRequired
	}
	if localPhoneRe.MatchString(stripped) || intlPhoneRe.MatchString(stripped) {
		return ""
	}
	return MsgPhoneInvalid
}

// ValidateLocation 校验配送地址，返回空串表示通过
func ValidateLocation(location string) string {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return MsgLocationRequired
	}
	if utf8.RuneCountInString(trimmed) < minLocationRunes {
		return MsgLocationTooShort
	}
	return ""
}

// ValidateCheckoutInput 校验全部字段
func ValidateCheckoutInput(input CheckoutInput) FieldErrors {
	errs := FieldErrors{}
	if msg := ValidatePhone(input.Phone); msg != "" {
		errs[FieldPhone] = msg
	}
	if msg := ValidateLocation(input.Location); msg != "" {
		errs[FieldLocation] = msg
	}
	return errs
}

// FormFilled 粗粒度的"已填写"判断，只用于切换主按钮展示
func FormFilled(input CheckoutInput) bool {
	return utf8.RuneCountInString(input.Phone) >= minPhoneRunes &&
		utf8.RuneCountInString(strings.TrimSpace(input.Location)) >= minLocationRunes
}
