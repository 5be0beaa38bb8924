package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// FeeConfig holds the fee constants the calculator is constructed with.
// These used to live as loose environment reads at each call site; they are an
// explicit struct now so initialization can validate them once, up front.
type FeeConfig struct {
	// VATRate is the VAT rate applied as an inclusive extraction (0.15 = 15%).
	VATRate decimal.Decimal
	// MarkupInclVAT is the fixed VAT-inclusive markup added to push payments.
	MarkupInclVAT decimal.Decimal
	// NegotiatedTierFee is the VAT-inclusive fee for the 50,000+ monthly
	// tier. Nil when no rate has been negotiated; the calculator fails closed
	// for accounts in that tier rather than reusing a lower tier's rate.
	NegotiatedTierFee *decimal.Decimal
	// ProxyValidationFee is the flat VAT-inclusive fee for proxy validation
	// without payment.
	ProxyValidationFee decimal.Decimal
}

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	RedisURL      string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	Fees FeeConfig
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	// Ping on startup so a bad PGSQL_URL fails fast instead of on first query.
	viper.SetDefault("ENABLE_DB_CHECK", true)
	viper.SetDefault("FEE_VAT_RATE", "0.15")
	viper.SetDefault("FEE_MARKUP_INCL_VAT", "1.00")
	viper.SetDefault("FEE_NEGOTIATED_TIER", "")
	viper.SetDefault("FEE_PROXY_VALIDATION", "3.00")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	fees, err := loadFeeConfig()
	if err != nil {
		return nil, err
	}
	cfg.Fees = fees

	return cfg, nil
}

func loadFeeConfig() (FeeConfig, error) {
	fees := FeeConfig{}

	vatRate, err := decimal.NewFromString(viper.GetString("FEE_VAT_RATE"))
	if err != nil {
		return fees, fmt.Errorf("invalid FEE_VAT_RATE: %w", err)
	}
	if vatRate.LessThanOrEqual(decimal.Zero) || vatRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fees, fmt.Errorf("FEE_VAT_RATE must be in (0, 1), got %s", vatRate.String())
	}
	fees.VATRate = vatRate

	markup, err := decimal.NewFromString(viper.GetString("FEE_MARKUP_INCL_VAT"))
	if err != nil {
		return fees, fmt.Errorf("invalid FEE_MARKUP_INCL_VAT: %w", err)
	}
	if markup.IsNegative() {
		return fees, fmt.Errorf("FEE_MARKUP_INCL_VAT must not be negative, got %s", markup.String())
	}
	fees.MarkupInclVAT = markup

	// An unset negotiated tier is allowed at boot. Accounts reaching the
	// 50,000+ tier will be refused until the rate is configured.
	if raw := viper.GetString("FEE_NEGOTIATED_TIER"); raw != "" {
		negotiated, err := decimal.NewFromString(raw)
		if err != nil {
			return fees, fmt.Errorf("invalid FEE_NEGOTIATED_TIER: %w", err)
		}
		if negotiated.LessThanOrEqual(decimal.Zero) {
			return fees, fmt.Errorf("FEE_NEGOTIATED_TIER must be positive, got %s", negotiated.String())
		}
		fees.NegotiatedTierFee = &negotiated
	} else {
		log.Println("Warning: FEE_NEGOTIATED_TIER not set. Fee quotes for the 50,000+ monthly tier will be refused.")
	}

	proxyFee, err := decimal.NewFromString(viper.GetString("FEE_PROXY_VALIDATION"))
	if err != nil {
		return fees, fmt.Errorf("invalid FEE_PROXY_VALIDATION: %w", err)
	}
	if proxyFee.LessThanOrEqual(decimal.Zero) {
		return fees, fmt.Errorf("FEE_PROXY_VALIDATION must be positive, got %s", proxyFee.String())
	}
	fees.ProxyValidationFee = proxyFee

	return fees, nil
}
