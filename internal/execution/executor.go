package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornip/Rina/common/httpx"
)

var ErrNoProof = errors.New("executor returned no proof")

// Executor runs a command against the wallet and returns proof of execution,
// typically a transaction signature.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

type Config struct {
	URL    string
	Token  string
	Wallet string
}

type httpExecutor struct {
	http   *httpx.Client
	wallet string
}

func New(cfg Config) (Executor, error) {
	hc, err := httpx.New(httpx.Config{
		BaseURL: cfg.URL,
		Token:   cfg.Token,
		Timeout: 2 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("executor client: %w", err)
	}
	// A retried swap could execute twice.
	hc.DisableRetries()
	return &httpExecutor{http: hc, wallet: cfg.Wallet}, nil
}

type executeRequest struct {
	Command string `json:"command"`
	Wallet  string `json:"wallet,omitempty"`
}

type executeResponse struct {
	Proof string `json:"proof"`
	Error string `json:"error"`
}

func (e *httpExecutor) Execute(ctx context.Context, command string) (string, error) {
	var resp executeResponse
	if err := e.http.PostJSON(ctx, "/v1/execute", executeRequest{Command: command, Wallet: e.wallet}, &resp); err != nil {
		return "", fmt.Errorf("execute %q: %w", command, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("execute %q: %s", command, resp.Error)
	}
	proof := strings.TrimSpace(resp.Proof)
	if proof == "" {
		return "", ErrNoProof
	}
	return proof, nil
}
