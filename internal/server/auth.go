package server

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mrtodp/fleetd/pkg/model"
)

// KeyConfig holds the accepted operator API keys.
type KeyConfig struct {
	keys map[string]struct{}
}

// LoadKeys reads a key file with one key per line. Blank lines and lines
// starting with # are skipped.
func LoadKeys(path string) (*KeyConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	cfg := &KeyConfig{keys: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cfg.keys[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return cfg, nil
}

// IsEnabled reports whether any keys are configured.
func (c *KeyConfig) IsEnabled() bool {
	return c != nil && len(c.keys) > 0
}

// Len returns the number of configured keys.
func (c *KeyConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Valid reports whether key is one of the configured keys.
func (c *KeyConfig) Valid(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// hashKey creates a short hash of the key for logging purposes.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// requireKey validates the X-Fleet-Key header on mutating routes. With no
// keys configured, authentication is disabled (open access).
func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.keys.IsEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		reqID := RequestIDFromContext(r.Context())
		key := r.Header.Get("X-Fleet-Key")
		if key == "" {
			respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
				Code:    model.ErrUnauthorized,
				Message: "authentication required (X-Fleet-Key header missing)",
			})
			return
		}
		if !s.keys.Valid(key) {
			s.logger.Warn("invalid fleet key", "key_hash", hashKey(key))
			respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
				Code:    model.ErrUnauthorized,
				Message: "invalid fleet key",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
