// Package workflow implements the generation–validation–repair orchestrator.
// A turn walks an explicit state machine: select components, generate code,
// validate it with the external compiler, and loop through repair until the
// candidate compiles or the iteration budget runs out. Session state persists
// across turns so a follow-up request refines the previous artifact.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/validator"
)

// Session is the persisted per-conversation state. One entity per session id,
// mutated once per orchestration turn.
type Session struct {
	ID string `json:"id"`
	// Query is the accumulated request history: on a successful iterative
	// turn the new request is appended so later turns keep full context.
	Query string `json:"query"`
	// NewQuery is the in-flight iterative request; cleared once it has been
	// folded into Query.
	NewQuery string `json:"new_query,omitempty"`
	// Code is the accumulated candidate artifact.
	Code string `json:"code"`
	// Components are the refs chosen by the last selection stage.
	Components []catalog.Ref `json:"components,omitempty"`
	// Instructions is the modification plan produced by iterative selection.
	Instructions string `json:"instructions,omitempty"`
	// Diagnostics holds the last validation errors; empty after a successful
	// turn.
	Diagnostics []validator.Diagnostic `json:"diagnostics,omitempty"`
	// LastError records the terminal error of the previous turn, if any.
	LastError string `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore persists sessions across turns and process restarts. Load
// returns (nil, nil) when no session exists for the id.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// CodeSample returns the seed artifact for a fresh session: the skeleton the
// generation prompt is asked to follow.
func CodeSample(uiLibrary string) string {
	return fmt.Sprintf(`import React from 'react';
import { Box } from '%s';

const Interface = () => {
  return (
    <Box>
    </Box>
  );
};

export default Interface;
`, uiLibrary)
}
