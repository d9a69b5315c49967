// Package explorer verifies contract source on Etherscan-compatible block
// explorers such as Basescan.
package explorer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrVerificationFailed is returned when the explorer rejects a submission.
var ErrVerificationFailed = errors.New("verification failed")

// Status is the outcome of a verification.
type Status string

const (
	StatusVerified        Status = "verified"
	StatusAlreadyVerified Status = "already-verified"
)

// Verification results reported by checkverifystatus.
const (
	resultPending         = "Pending in queue"
	resultPass            = "Pass - Verified"
	resultAlreadyVerified = "Already Verified"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxPolls     = 36
	httpTimeout         = 30 * time.Second
)

// Request describes one verifysourcecode submission.
type Request struct {
	Address         common.Address
	ContractName    string // fully qualified, "<source>:<contract>"
	CompilerVersion string // e.g. "v0.8.20+commit.a1b79de6"
	SourceCode      string // solc standard JSON input
	ConstructorArgs []byte // ABI-encoded
}

// response is the Etherscan API envelope. Result is a JSON array on success
// for getsourcecode and a plain string everywhere else.
type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (r *response) resultString() string {
	var s string
	if err := json.Unmarshal(r.Result, &s); err == nil {
		return s
	}
	return string(r.Result)
}

// Client talks to one explorer API endpoint.
type Client struct {
	apiURL  string
	apiKey  string
	chainID int64
	http    *http.Client

	PollInterval time.Duration
	MaxPolls     int
}

// New creates a client. chainID is sent as the "chainid" parameter when
// non-zero.
func New(apiURL, apiKey string, chainID int64) *Client {
	return &Client{
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
		chainID:      chainID,
		http:         &http.Client{Timeout: httpTimeout},
		PollInterval: defaultPollInterval,
		MaxPolls:     defaultMaxPolls,
	}
}

func (c *Client) params(module, action string) url.Values {
	v := url.Values{}
	v.Set("module", module)
	v.Set("action", action)
	if c.apiKey != "" {
		v.Set("apikey", c.apiKey)
	}
	if c.chainID != 0 {
		v.Set("chainid", strconv.FormatInt(c.chainID, 10))
	}
	return v
}

func (c *Client) get(ctx context.Context, q url.Values) (*response, error) {
	sep := "?"
	if strings.Contains(c.apiURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+sep+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, form url.Values) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned HTTP %d", resp.StatusCode)
	}
	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("parsing explorer response: %w", err)
	}
	return &env, nil
}

// IsVerified reports whether the explorer already has source for address.
func (c *Client) IsVerified(ctx context.Context, address common.Address) (bool, error) {
	q := c.params("contract", "getsourcecode")
	q.Set("address", address.Hex())

	env, err := c.get(ctx, q)
	if err != nil {
		return false, err
	}
	if env.Status != "1" {
		return false, fmt.Errorf("explorer API: %s", env.resultString())
	}

	var entries []struct {
		SourceCode string `json:"SourceCode"`
	}
	if err := json.Unmarshal(env.Result, &entries); err != nil {
		return false, fmt.Errorf("parsing source code response: %w", err)
	}
	return len(entries) > 0 && entries[0].SourceCode != "", nil
}

// Verify submits req and polls until the explorer decides.
func (c *Client) Verify(ctx context.Context, req Request) (Status, error) {
	verified, err := c.IsVerified(ctx, req.Address)
	if err != nil {
		return "", fmt.Errorf("checking verification status: %w", err)
	}
	if verified {
		return StatusAlreadyVerified, nil
	}

	guid, already, err := c.submit(ctx, req)
	if err != nil {
		return "", err
	}
	if already {
		return StatusAlreadyVerified, nil
	}
	return c.poll(ctx, guid)
}

func (c *Client) submit(ctx context.Context, req Request) (guid string, already bool, err error) {
	form := c.params("contract", "verifysourcecode")
	form.Set("contractaddress", req.Address.Hex())
	form.Set("sourceCode", req.SourceCode)
	form.Set("codeformat", "solidity-standard-json-input")
	form.Set("contractname", req.ContractName)
	form.Set("compilerversion", req.CompilerVersion)
	form.Set("constructorArguements", hex.EncodeToString(req.ConstructorArgs))

	env, err := c.post(ctx, form)
	if err != nil {
		return "", false, err
	}
	result := env.resultString()
	if env.Status != "1" {
		if isAlreadyVerified(result) {
			return "", true, nil
		}
		return "", false, fmt.Errorf("%w: %s", ErrVerificationFailed, result)
	}
	return result, false, nil
}

func (c *Client) poll(ctx context.Context, guid string) (Status, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for i := 0; i < c.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for verification %s: %w", guid, ctx.Err())
		case <-ticker.C:
		}

		q := c.params("contract", "checkverifystatus")
		q.Set("guid", guid)
		env, err := c.get(ctx, q)
		if err != nil {
			return "", err
		}

		result := env.resultString()
		switch {
		case result == resultPending:
			continue
		case result == resultPass:
			return StatusVerified, nil
		case isAlreadyVerified(result):
			return StatusAlreadyVerified, nil
		default:
			return "", fmt.Errorf("%w: %s", ErrVerificationFailed, result)
		}
	}
	return "", fmt.Errorf("%w: still pending after %d checks", ErrVerificationFailed, c.MaxPolls)
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), strings.ToLower(resultAlreadyVerified))
}
