package utils

import (
	"net/url"
)

func IsValidURL(str string) bool {
	_, err := url.ParseRequestURI(str)
	return err == nil
}

func IsValidNwcUrl(str string) bool {
	u, err := url.Parse(str)
	if err != nil {
		return false
	}
	return u.Scheme == "nostr+walletconnect"
}
