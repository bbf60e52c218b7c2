package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/metrics"
)

const (
	maxPayAppBody        = 1 << 20
	minEncryptedLength   = 50
	payAppIDHeader       = "APIClient_ID"
	payAppSecretHeader   = "APIClient_secret"
	payAppOpEncrypt      = "encrypt"
	payAppOpDecrypt      = "decrypt"
	defaultPayAppTimeout = 15 * time.Second
)

var (
	htmlFormActionPattern = regexp.MustCompile(`(?i)action="[^"]*\?payment=([^"]+)"`)
	htmlDataParamPattern  = regexp.MustCompile(`(?i)\?data=([^"&\s]+)`)
)

// PayAppConfig holds the PayApp endpoints and static credentials.
type PayAppConfig struct {
	ClientID     string
	ClientSecret string
	EncryptURL   string
	DecryptURL   string
	PayURL       string
	Timeout      time.Duration
}

// PayAppClient talks to the PayApp encryption and decryption endpoints.
// Nothing is retried here; callers own the retry policy.
type PayAppClient struct {
	cfg        PayAppConfig
	httpClient *http.Client
}

// NewPayAppClient builds a client that never follows redirects, so the
// Location header of the encryption endpoint stays readable.
func NewPayAppClient(cfg PayAppConfig) *PayAppClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPayAppTimeout
	}
	return &PayAppClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// EncryptRequest is the payment request handed to PayApp.
type EncryptRequest struct {
	RegID     string
	Name      string
	Email     string
	Category  string
	TxnID     string
	Amount    int64
	ReturnURL string
	Provider  string
}

type payAppEncryptBody struct {
	RegID     string `json:"reg_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Category  string `json:"category"`
	TxnID     string `json:"txn_id"`
	Amount    string `json:"amt"`
	ReturnURL string `json:"client_returnurl"`
	Provider  string `json:"provider"`
}

// EncryptResult carries either the provider's redirect URL or the encrypted
// payload to append to the pay URL.
type EncryptResult struct {
	RedirectURL string
	Encrypted   string
}

// PaymentURL returns where the user's browser should be sent.
func (c *PayAppClient) PaymentURL(res *EncryptResult) string {
	if res.RedirectURL != "" {
		return res.RedirectURL
	}
	return c.cfg.PayURL + "?" + url.Values{"data": {res.Encrypted}}.Encode()
}

// Encrypt asks PayApp to encrypt a payment request.
func (c *PayAppClient) Encrypt(ctx context.Context, req EncryptRequest) (res *EncryptResult, err error) {
	started := time.Now()
	defer func() { metrics.ObservePayApp(payAppOpEncrypt, started, err) }()

	payload, err := json.Marshal(payAppEncryptBody{
		RegID:     truncate(req.RegID, 10),
		Name:      truncate(req.Name, 100),
		Email:     req.Email,
		Category:  req.Category,
		TxnID:     truncate(req.TxnID, 15),
		Amount:    strconv.FormatInt(req.Amount, 10),
		ReturnURL: req.ReturnURL,
		Provider:  req.Provider,
	})
	if err != nil {
		return nil, &AdapterError{Op: payAppOpEncrypt, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"txn_id": req.TxnID,
		"reg_id": req.RegID,
		"amount": req.Amount,
	}).Info("payapp: encrypting payment request")

	resp, body, err := c.post(ctx, payAppOpEncrypt, c.cfg.EncryptURL, payload)
	if err != nil {
		return nil, err
	}

	if location := resp.Header.Get("Location"); location != "" {
		return &EncryptResult{RedirectURL: location}, nil
	}

	return interpretEncryptBody(resp.StatusCode, body)
}

func interpretEncryptBody(status int, body []byte) (*EncryptResult, error) {
	trimmed := strings.TrimSpace(string(body))
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "<!doctype") || strings.Contains(lower, "<html") {
		switch {
		case strings.Contains(trimmed, "Invalid requested values"):
			return nil, &AdapterError{Op: payAppOpEncrypt, StatusCode: status, Err: errors.New("request rejected: invalid requested values")}
		case strings.Contains(lower, "duplicate order id"), strings.Contains(lower, "duplicate transaction"):
			return nil, ErrDuplicateTransaction
		}

		for _, pattern := range []*regexp.Regexp{htmlFormActionPattern, htmlDataParamPattern} {
			if m := pattern.FindStringSubmatch(trimmed); len(m) == 2 {
				encrypted, err := url.PathUnescape(m[1])
				if err != nil {
					return nil, &AdapterError{Op: payAppOpEncrypt, StatusCode: status, Err: fmt.Errorf("unescape embedded payload: %w", err)}
				}
				return &EncryptResult{Encrypted: encrypted}, nil
			}
		}
		return nil, &AdapterError{Op: payAppOpEncrypt, StatusCode: status, Err: errors.New("html response without encrypted data")}
	}

	if len(trimmed) < minEncryptedLength {
		return nil, &AdapterError{Op: payAppOpEncrypt, StatusCode: status, Err: fmt.Errorf("unexpected response %q", trimmed)}
	}
	if status < 200 || status >= 300 {
		return nil, &AdapterError{Op: payAppOpEncrypt, StatusCode: status, Err: errors.New("encryption failed")}
	}

	return &EncryptResult{Encrypted: trimmed}, nil
}

// DecryptedPayment is the callback payload PayApp decrypted for us.
type DecryptedPayment struct {
	RegID         string `json:"reg_id"`
	TxnID         string `json:"txn_id"`
	Category      string `json:"category"`
	TxnStatus     string `json:"txnstatus"`
	PayCategoryID *int64 `json:"paycatg_id,omitempty"`
}

// Succeeded reports whether PayApp marked the payment as successful.
// The status compares as a number, so "1", "1.0" and "1e0" all succeed.
func (p *DecryptedPayment) Succeeded() bool {
	status := strings.TrimSpace(p.TxnStatus)
	if status == "1" {
		return true
	}
	f, err := strconv.ParseFloat(status, 64)
	return err == nil && f == 1
}

// Decrypt asks PayApp to decrypt a callback payload.
func (c *PayAppClient) Decrypt(ctx context.Context, encrypted string) (payment *DecryptedPayment, err error) {
	started := time.Now()
	defer func() { metrics.ObservePayApp(payAppOpDecrypt, started, err) }()

	encoded := serverURLEncode(strings.TrimSpace(encrypted))
	logrus.WithFields(logrus.Fields{
		"length":         len(encrypted),
		"encoded_length": len(encoded),
	}).Info("payapp: decrypting callback")

	payload, err := json.Marshal(map[string]string{"dycryptstring": encoded})
	if err != nil {
		return nil, &AdapterError{Op: payAppOpDecrypt, Err: err}
	}

	resp, body, err := c.post(ctx, payAppOpDecrypt, c.cfg.DecryptURL, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AdapterError{Op: payAppOpDecrypt, StatusCode: resp.StatusCode, Err: errors.New("decryption failed")}
	}

	return parseDecrypted(body)
}

func (c *PayAppClient) post(ctx context.Context, op, endpoint string, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, &AdapterError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	// PayApp matches the credential header names verbatim, so bypass canonicalization.
	req.Header[payAppIDHeader] = []string{c.cfg.ClientID}
	req.Header[payAppSecretHeader] = []string{c.cfg.ClientSecret}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &AdapterError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayAppBody))
	if err != nil {
		return nil, nil, &AdapterError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp, body, nil
}

// serverURLEncode reproduces the provider's server-side encoder: every byte
// outside [A-Za-z0-9-_.~] is percent-encoded (including ! ' ( ) *) and
// spaces become '+'. url.QueryEscape implements exactly that set.
func serverURLEncode(s string) string {
	return url.QueryEscape(s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
