package rpc

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Replay protection for relayed calls: a relay may attach a strictly
// increasing nonce with an expiry to each effective caller's requests. Nonce
// state is in-memory; it guards against replays within a process lifetime,
// not across restarts.

const callerMetadataMaxTTL = 15 * time.Minute

type callerMetadataParams struct {
	Nonce     *uint64 `json:"nonce,omitempty"`
	ExpiresAt *int64  `json:"expiresAt,omitempty"`
	TTL       *int64  `json:"ttl,omitempty"`
}

type callerNonceState struct {
	nonce   uint64
	expires time.Time
}

func callerKeyFromAddress(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func (s *Server) validateCallerMetadata(addr [20]byte, params callerMetadataParams) error {
	now := time.Now()
	expiry, err := parseMetadataExpiry(now, params.ExpiresAt, params.TTL)
	if err != nil {
		return err
	}
	if params.Nonce == nil {
		return nil
	}
	if *params.Nonce == 0 {
		return fmt.Errorf("nonce must be greater than zero")
	}
	if expiry.IsZero() {
		return fmt.Errorf("expiresAt or ttl required when nonce is provided")
	}
	return s.trackCallerNonce(callerKeyFromAddress(addr), *params.Nonce, expiry, now)
}

func parseMetadataExpiry(now time.Time, expiresAt, ttl *int64) (time.Time, error) {
	if expiresAt != nil && ttl != nil {
		return time.Time{}, fmt.Errorf("provide at most one of expiresAt or ttl")
	}
	if expiresAt != nil {
		if *expiresAt <= 0 {
			return time.Time{}, fmt.Errorf("expiresAt must be positive")
		}
		expiry := time.Unix(*expiresAt, 0)
		if !expiry.After(now) {
			return time.Time{}, fmt.Errorf("request expired")
		}
		if expiry.Sub(now) > callerMetadataMaxTTL {
			return time.Time{}, fmt.Errorf("expiresAt exceeds maximum ttl of %s", callerMetadataMaxTTL)
		}
		return expiry, nil
	}
	if ttl != nil {
		if *ttl <= 0 {
			return time.Time{}, fmt.Errorf("ttl must be positive")
		}
		duration := time.Duration(*ttl) * time.Second
		if duration > callerMetadataMaxTTL {
			return time.Time{}, fmt.Errorf("ttl exceeds maximum of %s", callerMetadataMaxTTL)
		}
		return now.Add(duration), nil
	}
	return time.Time{}, nil
}

func (s *Server) trackCallerNonce(key string, nonce uint64, expiry, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.callerNonces[key]
	if ok && now.Before(state.expires) && nonce <= state.nonce {
		return fmt.Errorf("nonce %d already used", nonce)
	}
	s.callerNonces[key] = callerNonceState{nonce: nonce, expires: expiry}
	return nil
}
