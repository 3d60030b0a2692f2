// Package config loads the process-wide configuration once at startup.
// The resulting value is immutable and injected into the gate and verifier;
// per-request logic never reads ambient environment state.
package config

import (
	"cmp"
	"errors"
	"os"

	"github.com/pieces-auto/paygate/domain"
)

type PayboxConfig struct {
	Identity domain.MerchantIdentity
	// HMACSecretHex is hex text representing raw HMAC-SHA512 key bytes.
	HMACSecretHex string
	SuccessCode   string
}

type SystemPayConfig struct {
	SiteID      string
	Certificate string
	// HMACKey overrides the certificate for the keyed convention when set.
	HMACKey     string
	Method      domain.SignatureMethod
	SuccessCode string
}

type Config struct {
	Port          string
	Mode          domain.EnforcementMode
	DatabaseURL   string
	RedisAddr     string
	AuditDBPath   string
	MigrationsDir string

	// OperatorJWTSecret signs the bearer tokens accepted on the operator
	// report endpoints.
	OperatorJWTSecret string
	// APIKeySalt is the argon2 salt for merchant API key hashing;
	// MerchantAPIKeyHash is the expected argon2 digest of the storefront's
	// API key, base64 raw-url encoded.
	APIKeySalt         string
	MerchantAPIKeyHash string

	Paybox    PayboxConfig
	SystemPay SystemPayConfig
}

// Load reads the environment. Missing mandatory key material is a
// configuration error and must fail process startup; a validation core that
// cannot compute signatures has nothing safe to do per request.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          cmp.Or(os.Getenv("PORT"), "8080"),
		Mode:          domain.EnforcementMode(cmp.Or(os.Getenv("ENFORCEMENT_MODE"), string(domain.ModeShadow))),
		DatabaseURL:   os.Getenv("DB_SOURCE"),
		RedisAddr:     cmp.Or(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		AuditDBPath:   cmp.Or(os.Getenv("AUDIT_DB_PATH"), "paygate_audit.db"),
		MigrationsDir: cmp.Or(os.Getenv("MIGRATIONS_DIR"), "db/migrations"),

		OperatorJWTSecret:  os.Getenv("OPERATOR_JWT_SECRET"),
		APIKeySalt:         os.Getenv("API_SECRET"),
		MerchantAPIKeyHash: os.Getenv("MERCHANT_API_KEY_HASH"),

		Paybox: PayboxConfig{
			Identity: domain.MerchantIdentity{
				SiteID:  os.Getenv("PAYBOX_SITE"),
				RankID:  os.Getenv("PAYBOX_RANG"),
				LoginID: os.Getenv("PAYBOX_IDENTIFIANT"),
			},
			HMACSecretHex: os.Getenv("PAYBOX_HMAC_KEY"),
			SuccessCode:   cmp.Or(os.Getenv("PAYBOX_SUCCESS_CODE"), "00000"),
		},
		SystemPay: SystemPayConfig{
			SiteID:      os.Getenv("SYSTEMPAY_SITE_ID"),
			Certificate: os.Getenv("SYSTEMPAY_CERTIFICATE"),
			HMACKey:     os.Getenv("SYSTEMPAY_HMAC_KEY"),
			Method:      domain.SignatureMethod(cmp.Or(os.Getenv("SYSTEMPAY_SIGNATURE_METHOD"), string(domain.SignatureMethodSHA1))),
			SuccessCode: cmp.Or(os.Getenv("SYSTEMPAY_SUCCESS_CODE"), "00"),
		},
	}

	if cfg.Mode != domain.ModeShadow && cfg.Mode != domain.ModeStrict {
		return nil, errors.New("config: ENFORCEMENT_MODE must be 'shadow' or 'strict'")
	}
	if cfg.Paybox.HMACSecretHex == "" {
		return nil, errors.New("config: PAYBOX_HMAC_KEY is required")
	}
	if cfg.SystemPay.Certificate == "" && cfg.SystemPay.HMACKey == "" {
		return nil, errors.New("config: SYSTEMPAY_CERTIFICATE or SYSTEMPAY_HMAC_KEY is required")
	}
	return cfg, nil
}
