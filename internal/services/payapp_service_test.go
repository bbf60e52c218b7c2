package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayApp(t *testing.T, handler http.HandlerFunc) *PayAppClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewPayAppClient(PayAppConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		EncryptURL:   srv.URL + "/encrypt",
		DecryptURL:   srv.URL + "/decrypt",
		PayURL:       "https://pay.example/Pay",
		Timeout:      2 * time.Second,
	})
}

func testEncryptRequest() EncryptRequest {
	return EncryptRequest{
		RegID:     "TZABCDEFGHIJ",
		Name:      "Jim Hopper",
		Email:     "hopper@example.com",
		Category:  "20",
		TxnID:     "TXN001",
		Amount:    200,
		ReturnURL: "https://technotronz.in/api/payment/verify",
		Provider:  "1",
	}
}

func TestEncryptSendsCredentialsAndFollowsLocation(t *testing.T) {
	client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "client-id", r.Header.Get("APIClient_ID"))
		assert.Equal(t, "client-secret", r.Header.Get("APIClient_secret"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TZABCDEFGH", body["reg_id"])
		assert.Equal(t, "200", body["amt"])
		assert.Equal(t, "TXN001", body["txn_id"])
		assert.Equal(t, "https://technotronz.in/api/payment/verify", body["client_returnurl"])

		w.Header().Set("Location", "https://pay.example/checkout/abc")
		w.WriteHeader(http.StatusFound)
	})

	res, err := client.Encrypt(context.Background(), testEncryptRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout/abc", res.RedirectURL)
	assert.Equal(t, "https://pay.example/checkout/abc", client.PaymentURL(res))
}

func TestEncryptExtractsPayloadFromHTML(t *testing.T) {
	client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<!DOCTYPE html><html><body><form method="post" action="https://pay.example/Pay?payment=abc%2B123%3D"></form></body></html>`)
	})

	res, err := client.Encrypt(context.Background(), testEncryptRequest())
	require.NoError(t, err)
	assert.Equal(t, "abc+123=", res.Encrypted)
	assert.Equal(t, "https://pay.example/Pay?data=abc%2B123%3D", client.PaymentURL(res))
}

func TestEncryptReportsDuplicateTransaction(t *testing.T) {
	client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><h3>Duplicate Order Id</h3></body></html>`)
	})

	_, err := client.Encrypt(context.Background(), testEncryptRequest())
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestEncryptRejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "invalid values page", status: http.StatusOK, body: `<html>Invalid requested values</html>`},
		{name: "html without payload", status: http.StatusOK, body: `<html><body>Something went wrong</body></html>`},
		{name: "short body", status: http.StatusOK, body: "error"},
		{name: "server error", status: http.StatusInternalServerError, body: strings.Repeat("x", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Encrypt(context.Background(), testEncryptRequest())
			var adapterErr *AdapterError
			require.True(t, errors.As(err, &adapterErr), "got %v", err)
			assert.Equal(t, payAppOpEncrypt, adapterErr.Op)
		})
	}
}

func TestEncryptReturnsPlainEncryptedBody(t *testing.T) {
	encrypted := strings.Repeat("Zm9v", 20)
	client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "  "+encrypted+"\n")
	})

	res, err := client.Encrypt(context.Background(), testEncryptRequest())
	require.NoError(t, err)
	assert.Equal(t, encrypted, res.Encrypted)
}

func TestDecryptEncodesLikeProviderServer(t *testing.T) {
	client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a+b%21%27%28%29%2A%2B%2F%3D", body["dycryptstring"])
		_, _ = io.WriteString(w, `{"txn_id":"TXN001","txnstatus":"1"}`)
	})

	payment, err := client.Decrypt(context.Background(), " a b!'()*+/= ")
	require.NoError(t, err)
	assert.Equal(t, "TXN001", payment.TxnID)
}

func TestDecryptResponseFormats(t *testing.T) {
	object := `{"reg_id":"TZ1","txn_id":"TXN001","category":"20","txnstatus":"1","paycatg_id":5}`
	doubled, err := json.Marshal(object)
	require.NoError(t, err)

	tests := []struct {
		name      string
		body      string
		want      DecryptedPayment
		succeeded bool
	}{
		{
			name:      "json object",
			body:      object,
			want:      DecryptedPayment{RegID: "TZ1", TxnID: "TXN001", Category: "20", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name:      "double encoded json",
			body:      string(doubled),
			want:      DecryptedPayment{RegID: "TZ1", TxnID: "TXN001", Category: "20", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name:      "numeric status",
			body:      `{"txn_id":"TXN002","txnstatus":1}`,
			want:      DecryptedPayment{TxnID: "TXN002", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name:      "numeric float status",
			body:      `{"txn_id":"TXN002","txnstatus":1.0}`,
			want:      DecryptedPayment{TxnID: "TXN002", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name:      "numeric exponent status",
			body:      `{"txn_id":"TXN002","txnstatus":1e0}`,
			want:      DecryptedPayment{TxnID: "TXN002", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name: "numeric fractional status",
			body: `{"txn_id":"TXN002","txnstatus":1.5}`,
			want: DecryptedPayment{TxnID: "TXN002", TxnStatus: "1.5"},
		},
		{
			name: "failed status",
			body: `{"txn_id":"TXN003","txnstatus":"0"}`,
			want: DecryptedPayment{TxnID: "TXN003", TxnStatus: "0"},
		},
		{
			name: "status fallback key",
			body: `{"txn_id":"TXN004","status":"2"}`,
			want: DecryptedPayment{TxnID: "TXN004", TxnStatus: "2"},
		},
		{
			name: "missing status",
			body: `{"txn_id":"TXN005"}`,
			want: DecryptedPayment{TxnID: "TXN005", TxnStatus: "0"},
		},
		{
			name:      "delimited",
			body:      "TZ1&20&TXN006&1",
			want:      DecryptedPayment{RegID: "TZ1", Category: "20", TxnID: "TXN006", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name:      "quoted delimited",
			body:      `"TZ1&20&TXN007&1"`,
			want:      DecryptedPayment{RegID: "TZ1", Category: "20", TxnID: "TXN007", TxnStatus: "1"},
			succeeded: true,
		},
		{
			name: "delimited without status",
			body: "TZ1&20&TXN008",
			want: DecryptedPayment{RegID: "TZ1", Category: "20", TxnID: "TXN008", TxnStatus: "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			payment, err := client.Decrypt(context.Background(), "cipher")
			require.NoError(t, err)
			payment.PayCategoryID = nil
			assert.Equal(t, tt.want, *payment)
			assert.Equal(t, tt.succeeded, payment.Succeeded())
		})
	}
}

func TestDoubleEncodedMatchesSingleEncoded(t *testing.T) {
	object := `{"reg_id":"TZ1","txn_id":"TXN001","category":"20","txnstatus":"1","paycatg_id":5}`
	doubled, err := json.Marshal(object)
	require.NoError(t, err)

	single, err := parseDecrypted([]byte(object))
	require.NoError(t, err)
	double, err := parseDecrypted(doubled)
	require.NoError(t, err)

	assert.Equal(t, single, double)
	require.NotNil(t, single.PayCategoryID)
	assert.Equal(t, int64(5), *single.PayCategoryID)
}

func TestDecryptFailures(t *testing.T) {
	t.Run("unparseable body", func(t *testing.T) {
		client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "garbage")
		})
		_, err := client.Decrypt(context.Background(), "cipher")
		var decErr *DecryptionError
		assert.True(t, errors.As(err, &decErr), "got %v", err)
	})

	t.Run("empty body", func(t *testing.T) {
		client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.Decrypt(context.Background(), "cipher")
		var decErr *DecryptionError
		assert.True(t, errors.As(err, &decErr), "got %v", err)
	})

	t.Run("non-2xx", func(t *testing.T) {
		client := newTestPayApp(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.Decrypt(context.Background(), "cipher")
		var adapterErr *AdapterError
		require.True(t, errors.As(err, &adapterErr), "got %v", err)
		assert.Equal(t, http.StatusBadGateway, adapterErr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer srv.Close()

		client := NewPayAppClient(PayAppConfig{DecryptURL: srv.URL, Timeout: 50 * time.Millisecond})
		_, err := client.Decrypt(context.Background(), "cipher")
		var adapterErr *AdapterError
		assert.True(t, errors.As(err, &adapterErr), "got %v", err)
		assert.Equal(t, ReasonError, ReasonFor(err))
	})
}

func TestTruncateIsRuneSafe(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ñañ", truncate("ñañaña", 3))
}

func TestDecryptedPaymentSucceeded(t *testing.T) {
	for status, want := range map[string]bool{
		"1":    true,
		" 1 ":  true,
		"1.0":  true,
		"1e0":  true,
		"0":    false,
		"2":    false,
		"1.01": false,
		"":     false,
		"yes":  false,
	} {
		assert.Equal(t, want, (&DecryptedPayment{TxnStatus: status}).Succeeded(), "status %q", status)
	}
}
