package elevenlabs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v0=<hex hmac-sha256>".
const SignatureHeader = "elevenlabs-signature"

// SignatureTolerance is how old a signed timestamp may be.
const SignatureTolerance = 30 * time.Minute

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks header against an HMAC-SHA256 of "<t>.<payload>".
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" || secret == "" {
		return ErrInvalidSignature
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v0":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if time.Unix(unix, 0).Before(now.Add(-SignatureTolerance)) {
		return ErrInvalidSignature
	}

	want := computeSignature(payload, ts, secret)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign builds a header value for payload at the given time.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v0=" + computeSignature(payload, ts, secret)
}

func computeSignature(payload []byte, ts, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
