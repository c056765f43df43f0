// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package conversation keeps short-lived chat transcripts and uses them
// to rewrite follow-up questions into standalone queries.
package conversation

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Chat roles stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Store persists per-conversation transcripts.
//
// # Description
//
//	Implementations keep a bounded, expiring window of turns keyed by
//	conversation ID. Get returns the current window ordered oldest to
//	newest; an unknown or expired ID yields an empty slice, not an
//	error. Append adds turns to the end of the window and drops the
//	oldest turns once the window exceeds its configured size.
//
// # Assumptions
//
//	Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, conversationID string) ([]Turn, error)
	Append(ctx context.Context, conversationID string, turns ...Turn) error
	Close() error
}

// Config controls history retention.
type Config struct {
	// MaxTurns caps the number of turns kept per conversation.
	MaxTurns int
	// TTL is the idle lifetime of a conversation. Any read or write
	// resets the clock.
	TTL time.Duration
	// BadgerPath is the on-disk location for the badger backend.
	// Empty selects an in-memory badger instance.
	BadgerPath string
}

// DefaultConfig reads retention settings from the environment, falling
// back to 20 turns and a 30 minute idle TTL.
func DefaultConfig() Config {
	return Config{
		MaxTurns:   getEnvInt("HISTORY_MAX_TURNS", 20),
		TTL:        getEnvDuration("HISTORY_TTL", 30*time.Minute),
		BadgerPath: os.Getenv("HISTORY_BADGER_PATH"),
	}
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid value for environment variable, using default",
			"key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid value for environment variable, using default",
			"key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}
