package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"ddns-telegram-relay/internal/domain"
)

// UpdateResult is the outcome of one address-family update reported by the
// DDNS updater. Only the three known values are accepted.
type UpdateResult string

const (
	ResultOK       UpdateResult = "OK"
	ResultFail     UpdateResult = "FAIL"
	ResultNoChange UpdateResult = "NO_CHANGE"
)

// ddns-go renders its result placeholders localized depending on its UI language.
var resultAliases = map[string]UpdateResult{
	"OK":        ResultOK,
	"SUCCESS":   ResultOK,
	"成功":        ResultOK,
	"FAIL":      ResultFail,
	"FAILED":    ResultFail,
	"失败":        ResultFail,
	"NO_CHANGE": ResultNoChange,
	"NOCHANGE":  ResultNoChange,
	"未改变":       ResultNoChange,
}

// ParseUpdateResult maps a raw result string onto the closed enum.
func ParseUpdateResult(raw string) (UpdateResult, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if r, ok := resultAliases[key]; ok {
		return r, nil
	}
	return "", &domain.ValidationError{Field: "result", Reason: "unrecognized value " + quote(raw)}
}

func (r *UpdateResult) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return &domain.ValidationError{Field: "result", Reason: "must be a string"}
	}
	parsed, err := ParseUpdateResult(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AddressReport is the per-family section of a DDNS callback. Addr holds the
// new address on success and may carry a diagnostic on failure.
type AddressReport struct {
	Result  UpdateResult `json:"result"`
	Addr    string       `json:"addr"`
	Domains string       `json:"domains"`
}

// IPUpdateReport is the transient body of one DDNS callback.
type IPUpdateReport struct {
	IPv4 *AddressReport `json:"ipv4,omitempty"`
	IPv6 *AddressReport `json:"ipv6,omitempty"`
}

// ParseIPUpdateReport decodes and validates a callback body. A report must
// carry at least one address family.
func ParseIPUpdateReport(body []byte) (*IPUpdateReport, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	var rep IPUpdateReport
	if err := dec.Decode(&rep); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, &domain.ValidationError{Reason: "invalid JSON: " + err.Error()}
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &domain.ValidationError{Reason: "invalid JSON: unexpected data after report"}
	}
	if err := rep.Validate(); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *IPUpdateReport) Validate() error {
	if r.IPv4 == nil && r.IPv6 == nil {
		return &domain.ValidationError{Field: "ipv4/ipv6", Reason: "at least one address family is required"}
	}
	if r.IPv4 != nil && r.IPv4.Result == "" {
		return &domain.ValidationError{Field: "ipv4.result", Reason: "missing"}
	}
	if r.IPv6 != nil && r.IPv6.Result == "" {
		return &domain.ValidationError{Field: "ipv6.result", Reason: "missing"}
	}
	return nil
}

// AllUnchanged reports whether every present family is NO_CHANGE.
func (r *IPUpdateReport) AllUnchanged() bool {
	for _, fam := range []*AddressReport{r.IPv4, r.IPv6} {
		if fam != nil && fam.Result != ResultNoChange {
			return false
		}
	}
	return true
}

const maxQuoted = 32

// quote echoes at most maxQuoted runes of untrusted input.
func quote(s string) string {
	if utf8.RuneCountInString(s) > maxQuoted {
		s = string([]rune(s)[:maxQuoted]) + "..."
	}
	return `"` + strings.ToValidUTF8(s, "\uFFFD") + `"`
}
