package normalize

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// InputHash combines the digests of every input file and the serialized
// derivation config, so that a change to either yields a new run identity.
func InputHash(config any, paths ...string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		if p == "" {
			h.Write([]byte{0})
			continue
		}
		sum, err := FileHash(p)
		if err != nil {
			return "", err
		}
		h.Write([]byte(sum))
		h.Write([]byte{0})
	}
	cfg, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	h.Write(cfg)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DigestJSON computes a SHA-256 over the canonical JSON encoding of each value
// in order. Struct fields encode in declaration order, so identical output
// always yields an identical digest.
func DigestJSON(values ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("digest: %w", err)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
