package domain

import (
	"database/sql/driver"
	"fmt"
)

// GatewayFamily identifies which bank gateway convention a notification
// follows. The two families use different field names, different signing
// algorithms and different success sentinels.
type GatewayFamily string

const (
	GatewayPaybox    GatewayFamily = "paybox"
	GatewaySystemPay GatewayFamily = "systempay"
)

func (e GatewayFamily) String() string {
	return string(e)
}

func (e *GatewayFamily) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = GatewayFamily(s)
	case string:
		*e = GatewayFamily(s)
	default:
		return fmt.Errorf("unsupported scan type for GatewayFamily: %T", src)
	}
	return nil
}

func (e GatewayFamily) Value() (driver.Value, error) {
	return string(e), nil
}

// EnforcementMode selects whether a failing validation can actually block a
// callback. Shadow computes and logs everything but never rejects, so a new
// rule can be observed against live traffic before it is trusted with money.
type EnforcementMode string

const (
	ModeShadow EnforcementMode = "shadow"
	ModeStrict EnforcementMode = "strict"
)

func (e EnforcementMode) String() string {
	return string(e)
}

func (e *EnforcementMode) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = EnforcementMode(s)
	case string:
		*e = EnforcementMode(s)
	default:
		return fmt.Errorf("unsupported scan type for EnforcementMode: %T", src)
	}
	return nil
}

func (e EnforcementMode) Value() (driver.Value, error) {
	return string(e), nil
}

// SignatureMethod selects the SystemPay signing convention: the legacy
// single SHA-1 digest or the keyed HMAC-SHA256.
type SignatureMethod string

const (
	SignatureMethodSHA1       SignatureMethod = "sha1"
	SignatureMethodHMACSHA256 SignatureMethod = "hmac-sha256"
)

func (e SignatureMethod) String() string {
	return string(e)
}

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (e PaymentStatus) String() string {
	return string(e)
}

func (e *PaymentStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = PaymentStatus(s)
	case string:
		*e = PaymentStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for PaymentStatus: %T", src)
	}
	return nil
}

func (e PaymentStatus) Value() (driver.Value, error) {
	return string(e), nil
}
