package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type parseKind int

const (
	parseOK parseKind = iota
	parseNext
	parseFatal
)

type parseResult struct {
	kind    parseKind
	payment *DecryptedPayment
	err     error
}

// decryptParser is one way of reading a PayApp decryption response.
type decryptParser struct {
	name  string
	parse func(raw []byte) parseResult
}

// PayApp has answered with a JSON object, a JSON string wrapping that object,
// and a bare "reg_id&category&txn_id&status" string. Parsers run in order.
var decryptParsers = []decryptParser{
	{name: "json", parse: parseJSONObject},
	{name: "double-encoded json", parse: parseDoubleEncodedJSON},
	{name: "delimited", parse: parseDelimited},
}

func parseDecrypted(raw []byte) (*DecryptedPayment, error) {
	for _, p := range decryptParsers {
		res := p.parse(raw)
		switch res.kind {
		case parseOK:
			return res.payment, nil
		case parseFatal:
			return nil, &DecryptionError{Reason: p.name, Err: res.err}
		}
	}
	return nil, &DecryptionError{Reason: "unrecognized response format"}
}

func parseJSONObject(raw []byte) parseResult {
	obj, ok := decodeObject(raw)
	if !ok {
		return parseResult{kind: parseNext}
	}
	return parseResult{kind: parseOK, payment: paymentFromObject(obj)}
}

func parseDoubleEncodedJSON(raw []byte) parseResult {
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return parseResult{kind: parseNext}
	}
	obj, ok := decodeObject([]byte(inner))
	if !ok {
		return parseResult{kind: parseNext}
	}
	return parseResult{kind: parseOK, payment: paymentFromObject(obj)}
}

func parseDelimited(raw []byte) parseResult {
	text := strings.TrimSpace(string(raw))
	var unquoted string
	if err := json.Unmarshal(raw, &unquoted); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	if text == "" {
		return parseResult{kind: parseFatal, err: fmt.Errorf("empty response")}
	}

	parts := strings.Split(text, "&")
	if len(parts) < 3 {
		return parseResult{kind: parseFatal, err: fmt.Errorf("expected at least 3 fields, got %d", len(parts))}
	}

	status := "0"
	if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
		status = strings.TrimSpace(parts[3])
	}

	return parseResult{kind: parseOK, payment: &DecryptedPayment{
		RegID:     strings.TrimSpace(parts[0]),
		Category:  strings.TrimSpace(parts[1]),
		TxnID:     strings.TrimSpace(parts[2]),
		TxnStatus: status,
	}}
}

func decodeObject(raw []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func paymentFromObject(obj map[string]any) *DecryptedPayment {
	status := stringField(obj, "txnstatus")
	if status == "" {
		status = stringField(obj, "status")
	}
	if status == "" {
		status = "0"
	}

	p := &DecryptedPayment{
		RegID:     stringField(obj, "reg_id"),
		TxnID:     stringField(obj, "txn_id"),
		Category:  stringField(obj, "category"),
		TxnStatus: status,
	}

	if id := stringField(obj, "paycatg_id"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			p.PayCategoryID = &parsed
		}
	}
	return p
}

// stringField renders strings and numbers alike, so 1 and "1" compare equal.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return numberText(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// numberText writes integral numbers without a fraction or exponent,
// so 1.0 and 1e0 read as "1".
func numberText(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}
