package tokenstore

import (
	"sync"
	"time"
)

// In-memory JWT revocation store keyed by jti. Entries older than the token
// lifetime are swept so the map cannot grow without bound.

const retention = 25 * time.Hour // slightly past the 24h token expiry

var (
	mu      sync.RWMutex
	revoked = map[string]time.Time{}
)

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	mu.Lock()
	revoked[jti] = time.Now()
	sweepLocked()
	mu.Unlock()
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := revoked[jti]
	return ok
}

func sweepLocked() {
	cutoff := time.Now().Add(-retention)
	for jti, at := range revoked {
		if at.Before(cutoff) {
			delete(revoked, jti)
		}
	}
}
