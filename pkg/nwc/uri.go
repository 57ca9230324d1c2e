package nwc

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// ConnectOpts is the parsed form of a nostr+walletconnect:// descriptor.
type ConnectOpts struct {
	WalletPubkey string
	RelayURL     string
	Secret       string
	Lud16        string
}

// ParseConnectURI parses a wallet connection descriptor of the form
//
//	nostr+walletconnect://<wallet-pubkey>?relay=<url>&secret=<hex>
//
// Both the relay and the secret are required.
func ParseConnectURI(uri string) (*ConnectOpts, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("invalid connection URI: %w", err)
	}
	if u.Scheme != "nostr+walletconnect" {
		return nil, fmt.Errorf("invalid connection URI scheme %q", u.Scheme)
	}

	// the wallet pubkey lands in Host or Opaque depending on the
	// presence of the double slash
	pubkey := u.Host
	if pubkey == "" {
		pubkey = u.Opaque
	}
	if !isHex32(pubkey) {
		return nil, fmt.Errorf("invalid wallet pubkey in connection URI")
	}

	query := u.Query()
	relay := query.Get("relay")
	if relay == "" {
		return nil, fmt.Errorf("connection URI is missing the relay")
	}
	secret := query.Get("secret")
	if !isHex32(secret) {
		return nil, fmt.Errorf("connection URI is missing a valid secret")
	}

	return &ConnectOpts{
		WalletPubkey: pubkey,
		RelayURL:     relay,
		Secret:       secret,
		Lud16:        query.Get("lud16"),
	}, nil
}

func isHex32(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
