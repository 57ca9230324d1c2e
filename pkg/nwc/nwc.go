package nwc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
)

// Client talks NIP-47 to a remote wallet over a single relay connection.
// Calls are serialized through the client mutex: the relay handle is a
// shared resource and must not be mutated concurrently.
type Client struct {
	opts         *ConnectOpts
	relay        *nostr.Relay
	clientPubkey string
	sharedSecret []byte

	mu sync.Mutex
}

// Connect parses the descriptor, dials the relay and derives the NIP-04
// shared secret used to encrypt request payloads.
func Connect(ctx context.Context, uri string) (*Client, error) {
	opts, err := ParseConnectURI(uri)
	if err != nil {
		return nil, err
	}

	clientPubkey, err := nostr.GetPublicKey(opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("invalid connection secret: %w", err)
	}

	sharedSecret, err := nip04.ComputeSharedSecret(opts.WalletPubkey, opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shared secret: %w", err)
	}

	relay, err := nostr.RelayConnect(ctx, opts.RelayURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay %s: %w", opts.RelayURL, err)
	}

	return &Client{
		opts:         opts,
		relay:        relay,
		clientPubkey: clientPubkey,
		sharedSecret: sharedSecret,
	}, nil
}

func (c *Client) WalletPubkey() string {
	return c.opts.WalletPubkey
}

func (c *Client) Close() {
	// nolint:all
	c.relay.Close()
}

func (c *Client) GetInfo(ctx context.Context) (*GetInfoResult, error) {
	var result GetInfoResult
	if err := c.call(ctx, MethodGetInfo, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetBalance(ctx context.Context) (*GetBalanceResult, error) {
	var result GetBalanceResult
	if err := c.call(ctx, MethodGetBalance, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) MakeInvoice(ctx context.Context, params MakeInvoiceParams) (*MakeInvoiceResult, error) {
	var result MakeInvoiceResult
	if err := c.call(ctx, MethodMakeInvoice, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PayInvoice(ctx context.Context, params PayInvoiceParams) (*PayInvoiceResult, error) {
	var result PayInvoiceResult
	if err := c.call(ctx, MethodPayInvoice, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WalletError is a structured error returned by the remote wallet.
type WalletError struct {
	Code    string
	Message string
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet error %s: %s", e.Code, e.Message)
}

// call publishes an encrypted request event and waits for the matching
// response event, honoring ctx for cancellation.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if params == nil {
		params = struct{}{}
	}
	payload, err := json.Marshal(Request{Method: method, Params: params})
	if err != nil {
		return err
	}

	content, err := nip04.Encrypt(string(payload), c.sharedSecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt request: %w", err)
	}

	ev := nostr.Event{
		PubKey:    c.clientPubkey,
		CreatedAt: nostr.Now(),
		Kind:      KindWalletRequest,
		Tags:      nostr.Tags{{"p", c.opts.WalletPubkey}},
		Content:   content,
	}
	if err := ev.Sign(c.opts.Secret); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	// subscribe before publishing so the response cannot slip past us
	sub, err := c.relay.Subscribe(ctx, nostr.Filters{{
		Kinds:   []int{KindWalletResponse},
		Authors: []string{c.opts.WalletPubkey},
		Tags:    nostr.TagMap{"e": []string{ev.ID}},
	}})
	if err != nil {
		return fmt.Errorf("failed to subscribe for response: %w", err)
	}
	defer sub.Unsub()

	if err := c.relay.Publish(ctx, ev); err != nil {
		return fmt.Errorf("failed to publish request: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case respEv, ok := <-sub.Events:
			if !ok {
				return fmt.Errorf("relay subscription closed before response")
			}
			if respEv == nil {
				continue
			}

			plaintext, err := nip04.Decrypt(respEv.Content, c.sharedSecret)
			if err != nil {
				return fmt.Errorf("failed to decrypt response: %w", err)
			}

			var resp Response
			if err := json.Unmarshal([]byte(plaintext), &resp); err != nil {
				return fmt.Errorf("could not parse wallet response: %w", err)
			}
			if resp.Error != nil {
				return &WalletError{Code: resp.Error.Code, Message: resp.Error.Message}
			}
			if resp.ResultType != method {
				// response to some other in-flight request, keep waiting
				continue
			}
			if result != nil {
				if err := json.Unmarshal(resp.Result, result); err != nil {
					return fmt.Errorf("could not parse wallet result: %w", err)
				}
			}
			return nil
		}
	}
}
