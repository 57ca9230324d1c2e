package nwc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testWalletPubkey = strings.Repeat("ab", 32)
	testSecret       = strings.Repeat("cd", 32)
)

func TestParseConnectURI(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		uris := []string{
			// with double slash the pubkey lands in the host
			"nostr+walletconnect://" + testWalletPubkey +
				"?relay=wss%3A%2F%2Frelay.damus.io&secret=" + testSecret,
			// without it the pubkey is the opaque part
			"nostr+walletconnect:" + testWalletPubkey +
				"?relay=wss%3A%2F%2Frelay.damus.io&secret=" + testSecret,
		}
		for _, uri := range uris {
			opts, err := ParseConnectURI(uri)
			require.NoError(t, err)
			require.Equal(t, testWalletPubkey, opts.WalletPubkey)
			require.Equal(t, "wss://relay.damus.io", opts.RelayURL)
			require.Equal(t, testSecret, opts.Secret)
			require.Empty(t, opts.Lud16)
		}
	})

	t.Run("lud16 is optional", func(t *testing.T) {
		opts, err := ParseConnectURI(
			"nostr+walletconnect://" + testWalletPubkey +
				"?relay=wss%3A%2F%2Frelay.damus.io&secret=" + testSecret +
				"&lud16=user%40example.com",
		)
		require.NoError(t, err)
		require.Equal(t, "user@example.com", opts.Lud16)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			uri  string
		}{
			{
				name: "wrong scheme",
				uri:  "https://" + testWalletPubkey + "?relay=wss%3A%2F%2Fr&secret=" + testSecret,
			},
			{
				name: "missing relay",
				uri:  "nostr+walletconnect://" + testWalletPubkey + "?secret=" + testSecret,
			},
			{
				name: "missing secret",
				uri:  "nostr+walletconnect://" + testWalletPubkey + "?relay=wss%3A%2F%2Fr",
			},
			{
				name: "short secret",
				uri:  "nostr+walletconnect://" + testWalletPubkey + "?relay=wss%3A%2F%2Fr&secret=abcd",
			},
			{
				name: "malformed pubkey",
				uri:  "nostr+walletconnect://not-a-pubkey?relay=wss%3A%2F%2Fr&secret=" + testSecret,
			},
			{
				name: "empty",
				uri:  "",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				opts, err := ParseConnectURI(tt.uri)
				require.Error(t, err)
				require.Nil(t, opts)
			})
		}
	})
}
