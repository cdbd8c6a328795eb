package config

import (
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type LedgerConfig struct {
	SystemAccountID      string
	SystemInitialBalance int64
	SeedAmount           int64
	Currency             string
	CurrencySymbol       string
	MinorUnitExponent    int32
	ConflictRetries      int
	RetryBackoff         time.Duration
	LockTimeout          time.Duration
	Location             *time.Location
}

func LoadLedgerConfig() *LedgerConfig {
	viper.SetDefault("ledger.system_account_id", "system")
	viper.SetDefault("ledger.system_initial_balance", int64(1_000_000_000))
	viper.SetDefault("ledger.seed_amount", int64(100_000))
	viper.SetDefault("ledger.currency", "NGN")
	viper.SetDefault("ledger.currency_symbol", "N")
	viper.SetDefault("ledger.minor_unit_exponent", 2)
	viper.SetDefault("ledger.conflict_retries", 2)
	viper.SetDefault("ledger.retry_backoff", 50*time.Millisecond)
	viper.SetDefault("ledger.lock_timeout", 5*time.Second)
	viper.SetDefault("ledger.timezone", "UTC")

	timezone := viper.GetString("ledger.timezone")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		zap.L().Warn("Unknown ledger timezone, date ranges fall back to UTC",
			zap.String("timezone", timezone), zap.Error(err))
		loc = time.UTC
	}

	return &LedgerConfig{
		SystemAccountID:      viper.GetString("ledger.system_account_id"),
		SystemInitialBalance: viper.GetInt64("ledger.system_initial_balance"),
		SeedAmount:           viper.GetInt64("ledger.seed_amount"),
		Currency:             viper.GetString("ledger.currency"),
		CurrencySymbol:       viper.GetString("ledger.currency_symbol"),
		MinorUnitExponent:    viper.GetInt32("ledger.minor_unit_exponent"),
		ConflictRetries:      viper.GetInt("ledger.conflict_retries"),
		RetryBackoff:         viper.GetDuration("ledger.retry_backoff"),
		LockTimeout:          viper.GetDuration("ledger.lock_timeout"),
		Location:             loc,
	}
}
