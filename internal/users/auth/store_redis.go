// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/constants"
)

// # Session Repository

// RedisSessionRepository implements SessionRepository using Redis.
//
// Each session is stored under its refresh-token hash with a TTL matching
// the session lifetime; Redis expiry is the only expiry mechanism, so a
// vanished key IS an expired session. A per-user SET of token hashes backs
// the bulk revocation operations.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// sessionKey addresses a single session by its refresh-token hash.
func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + tokenHash
}

// sessionIndexKey addresses the set of token hashes belonging to one user.
func sessionIndexKey(userID string) string {
	return constants.RedisPrefixSession + "user:" + userID
}

// redisSession is the storage projection of a [Session]. The token hash is
// the key and is not duplicated in the payload.
type redisSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

/*
Create persists a new session keyed by its token hash.

Description: Writes the session payload with a TTL derived from ExpiresAt
and registers the hash in the owner's session index.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Serialization or storage failures
*/
func (repository *RedisSessionRepository) Create(context context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	timeToLive := time.Until(session.ExpiresAt)
	if timeToLive <= 0 {
		return fmt.Errorf("redis_session_create_failed: session already expired")
	}

	payload, err := json.Marshal(redisSession{
		ID:        session.ID,
		UserID:    session.UserID,
		UserAgent: session.UserAgent,
		IPAddress: session.IPAddress,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	// Step 1: Store the session payload under its token hash.
	if err := repository.client.Set(context, sessionKey(session.TokenHash), payload, timeToLive).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	// Step 2: Register the hash in the user's index. The index outlives each
	// member by at most one session lifetime; stale members are skipped on read.
	indexKey := sessionIndexKey(session.UserID)
	if err := repository.client.SAdd(context, indexKey, session.TokenHash).Err(); err != nil {
		return fmt.Errorf("redis_session_index_failed: %w", err)
	}
	_ = repository.client.Expire(context, indexKey, RefreshTokenTTL).Err()

	return nil
}

/*
FindByTokenHash returns the active session matching the given token hash.

Description: A missing key means the session was revoked or has expired;
both resolve to apperr.NotFound.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	payload, err := repository.client.Get(context, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session not found or expired")
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("redis_session_unmarshal_failed: %w", err)
	}

	return &Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		TokenHash: tokenHash,
		UserAgent: stored.UserAgent,
		IPAddress: stored.IPAddress,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
	}, nil
}

/*
Revoke permanently invalidates the session with the given token hash.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisSessionRepository) Revoke(context context.Context, tokenHash string) error {
	session, err := repository.FindByTokenHash(context, tokenHash)
	if err == nil {
		_ = repository.client.SRem(context, sessionIndexKey(session.UserID), tokenHash).Err()
	}

	if err := repository.client.Del(context, sessionKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("redis_session_revoke_failed: %w", err)
	}

	return nil
}

/*
RevokeAll revokes every active session belonging to the userID.

Description: Security nuking of all active sessions for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Batch revocation failures
*/
func (repository *RedisSessionRepository) RevokeAll(context context.Context, userID string) error {
	return repository.revokeMatching(context, userID, "")
}

/*
RevokeOthers revokes all sessions belonging to the userID except the session
with the given token hash.

Parameters:
  - context: context.Context
  - userID: string
  - currentTokenHash: string

Returns:
  - error: Filtered revocation failures
*/
func (repository *RedisSessionRepository) RevokeOthers(context context.Context, userID, currentTokenHash string) error {
	return repository.revokeMatching(context, userID, currentTokenHash)
}

// revokeMatching deletes every indexed session for the user except the one
// whose hash equals keep (empty keep revokes everything).
func (repository *RedisSessionRepository) revokeMatching(context context.Context, userID, keep string) error {
	indexKey := sessionIndexKey(userID)

	hashes, err := repository.client.SMembers(context, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis_session_index_read_failed: %w", err)
	}

	for _, hash := range hashes {
		if hash == keep {
			continue
		}
		if err := repository.client.Del(context, sessionKey(hash)).Err(); err != nil {
			return fmt.Errorf("redis_session_bulk_revoke_failed: %w", err)
		}
		_ = repository.client.SRem(context, indexKey, hash).Err()
	}

	return nil
}

// # Reset Token Repository

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

/*
Set stores a reset token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID string, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixResetToken + token

	// Set the token with TTL
	if err := repository.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Get retrieves the userID for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Original UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixResetToken + token

	// Get the token from Redis
	userID, err := repository.client.Get(context, key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token is invalid or expired")
		}
		return "", fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}

	// Return the userID
	return userID, nil
}

/*
Delete removes the token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixResetToken + token

	// Delete the token from Redis
	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}

	// Return nil on success
	return nil
}
