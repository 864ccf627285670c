package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	errEmptyPayload = errors.New("empty payload")
	errNullPayload  = errors.New("null payload")
)

// Client is a typed client for a mempool.space compatible REST API.
// It borrows a Transport for the actual HTTP exchange and keeps no other
// state, so one Client can serve many goroutines at once.
type Client struct {
	baseURL   string
	transport Transport
}

// NewClient creates a new API client rooted at baseURL,
// e.g. "https://mempool.space/api". No request is made.
func NewClient(baseURL string, transport Transport) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	if transport == nil {
		return nil, ErrNilTransport
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	// endpoint paths are appended to the base, so it cannot carry a query
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return nil, fmt.Errorf("%w: %q has a query or fragment", ErrInvalidBaseURL, baseURL)
	}
	return &Client{
		baseURL:   baseURL,
		transport: transport,
	}, nil
}

// BaseURL returns the base URL the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// joinURL joins base and path with exactly one slash between them
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// send resolves ep against params and performs the single transport round trip
func (c *Client) send(ctx context.Context, ep Endpoint, query url.Values, body []byte, params ...string) ([]byte, error) {
	path, err := ep.Resolve(params...)
	if err != nil {
		return nil, err
	}
	reqURL := joinURL(c.baseURL, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	if ep.Method == MethodGet {
		body = nil
	}

	resp, err := c.transport.Send(ctx, ep.Method, reqURL, body)
	if err != nil {
		return nil, &TransportError{
			Endpoint: ep.Name,
			Method:   ep.Method,
			URL:      reqURL,
			Err:      err,
		}
	}
	return resp, nil
}

// call sends the request for ep and decodes the payload with decode
func call[T any](ctx context.Context, c *Client, ep Endpoint, query url.Values, body []byte, decode func([]byte) (T, error), params ...string) (T, error) {
	var zero T
	data, err := c.send(ctx, ep, query, body, params...)
	if err != nil {
		return zero, err
	}
	v, err := decode(data)
	if err != nil {
		return zero, newDecodeError(ep.Name, data, err)
	}
	return v, nil
}

func decodeJSON[T any](data []byte) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return v, errEmptyPayload
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return v, errNullPayload
	}
	if err := checkJSONHashes(trimmed, reflect.TypeFor[T]()); err != nil {
		return v, err
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, err
	}
	return v, nil
}

func decodeText(data []byte) (string, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", errEmptyPayload
	}
	return s, nil
}

func decodeHash(data []byte) (chainhash.Hash, error) {
	s, err := decodeText(data)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if err := checkHashString(s); err != nil {
		return chainhash.Hash{}, err
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *h, nil
}

func decodeUint32(data []byte) (uint32, error) {
	s, err := decodeText(data)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func decodeHex(data []byte) ([]byte, error) {
	s, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(s)
}

func decodeMsgTx(data []byte) (*wire.MsgTx, error) {
	raw, err := decodeHex(data)
	if err != nil {
		return nil, err
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	r := bytes.NewReader(raw)
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction", r.Len())
	}
	return tx, nil
}

func decodeBlockHeader(data []byte) (*wire.BlockHeader, error) {
	raw, err := decodeHex(data)
	if err != nil {
		return nil, err
	}
	if len(raw) != wire.MaxBlockHeaderPayload {
		return nil, fmt.Errorf("block header has %d bytes, want %d", len(raw), wire.MaxBlockHeaderPayload)
	}
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return &header, nil
}
