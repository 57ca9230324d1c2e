package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voltbridge/voltbridge/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("VOLTBRIDGE_DATADIR", t.TempDir())
	t.Setenv(
		"VOLTBRIDGE_NWC_URL",
		"nostr+walletconnect://"+strings.Repeat("ab", 32)+
			"?relay=wss%3A%2F%2Frelay.damus.io&secret="+strings.Repeat("cd", 32),
	)
	t.Setenv("VOLTBRIDGE_HTLC_CONTRACT", "0x"+strings.Repeat("aa", 20))
	t.Setenv("VOLTBRIDGE_TOKEN_ADDRESS", "0x"+strings.Repeat("bb", 20))
	t.Setenv("VOLTBRIDGE_EVM_PRIVATE_KEY", strings.Repeat("cd", 32))
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, uint32(7100), cfg.HTTPPort)
		require.Equal(t, uint32(4), cfg.LogLevel)
		require.Equal(t, "badger", cfg.DbType)
		require.Equal(t, "https://testnet.hashio.io/api", cfg.EvmRpcURL)
		require.Equal(t, int64(296), cfg.EvmChainId)
	})

	t.Run("env overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("VOLTBRIDGE_HTTP_PORT", "9000")
		t.Setenv("VOLTBRIDGE_DB_TYPE", "sqlite")
		t.Setenv("VOLTBRIDGE_EVM_CHAIN_ID", "295")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, uint32(9000), cfg.HTTPPort)
		require.Equal(t, "sqlite", cfg.DbType)
		require.Equal(t, int64(295), cfg.EvmChainId)
	})

	t.Run("missing required settings", func(t *testing.T) {
		required := []string{
			"VOLTBRIDGE_NWC_URL",
			"VOLTBRIDGE_HTLC_CONTRACT",
			"VOLTBRIDGE_TOKEN_ADDRESS",
			"VOLTBRIDGE_EVM_PRIVATE_KEY",
		}
		for _, key := range required {
			t.Run(key, func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv(key, "")

				cfg, err := config.LoadConfig()
				require.Error(t, err)
				require.Nil(t, cfg)
			})
		}
	})
}
