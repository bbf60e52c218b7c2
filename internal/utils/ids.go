package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	maxTxnIDLen = 15
	maxRegIDLen = 10

	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tzIDAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// GenerateTxnID returns a PayApp transaction id: TXN, base36 time, random suffix, at most 15 chars.
func GenerateTxnID() string {
	id := "TXN" + base36Now() + randomString(base36Alphabet, 4)
	if len(id) > maxTxnIDLen {
		id = id[:maxTxnIDLen]
	}
	return id
}

// GenerateRegID returns a PayApp registration id of at most 10 chars.
func GenerateRegID() string {
	id := "TZ" + base36Now()
	if len(id) > maxRegIDLen {
		id = id[:maxRegIDLen]
	}
	return id
}

// GenerateTzID returns a participant id of the form TZ26-XXXXXX.
func GenerateTzID() string {
	return "TZ26-" + randomString(tzIDAlphabet, 6)
}

// FallbackTzID derives a participant id from the clock when random ids keep colliding.
func FallbackTzID() string {
	ts := base36Now()
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return "TZ26-" + ts
}

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func base36Now() string {
	return strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
}

func randomString(alphabet string, n int) string {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(alphabet[0])
			continue
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}
