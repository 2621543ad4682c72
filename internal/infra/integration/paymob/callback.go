package paymob

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingTransaction = errors.New("paymob callback has no obj")
	ErrInvalidSignature   = errors.New("paymob hmac mismatch")
)

// signedFields is the order Paymob concatenates transaction fields in
// before signing.
var signedFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// Transaction is the processed-transaction callback ("obj") kept as a
// generic tree so signed values are reproduced exactly as sent.
type Transaction struct {
	obj map[string]any
}

func ParseCallback(body []byte) (*Transaction, error) {
	var envelope struct {
		Obj json.RawMessage `json:"obj"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode paymob callback: %w", err)
	}
	if len(envelope.Obj) == 0 || string(envelope.Obj) == "null" {
		return nil, ErrMissingTransaction
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Obj))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode paymob transaction: %w", err)
	}
	return &Transaction{obj: obj}, nil
}

// SignedString concatenates the signed fields in Paymob order. Null values
// are written as "null" and absent ones as "undefined", matching the
// signer's string concatenation.
func (t *Transaction) SignedString() string {
	var b strings.Builder
	for _, path := range signedFields {
		if _, ok := t.find(path); !ok {
			b.WriteString("undefined")
			continue
		}
		b.WriteString(format(t.lookup(path)))
	}
	return b.String()
}

// Verify checks the hex HMAC-SHA512 sent in the query string.
func (t *Transaction) Verify(secret, signature string) error {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, Sign(secret, t.SignedString())) {
		return ErrInvalidSignature
	}
	return nil
}

func (t *Transaction) ID() string {
	if v := t.lookup("id"); v != nil {
		return format(v)
	}
	return ""
}

// Success accepts both boolean and string encodings.
func (t *Transaction) Success() bool {
	switch v := t.lookup("success").(type) {
	case bool:
		return v
	case string:
		ok, _ := strconv.ParseBool(v)
		return ok
	}
	return false
}

// CompanyID is the tenant id placed in shipping_data.extra_description
// during checkout.
func (t *Transaction) CompanyID() string {
	v := t.lookup("order.shipping_data.extra_description")
	if v == nil {
		return ""
	}
	return strings.TrimSpace(format(v))
}

func (t *Transaction) lookup(path string) any {
	v, _ := t.find(path)
	return v
}

// find reports whether path is present, null included.
func (t *Transaction) find(path string) (any, bool) {
	var cur any = t.obj
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func Sign(secret, message string) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
