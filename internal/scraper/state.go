package scraper

import (
	"github.com/google/uuid"

	"vehiclescraper/internal/logger"
)

// State is the lifecycle stage of a browser session.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateNavigating
	StateWaitingForContent
	StateExtracting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateNavigating:
		return "navigating"
	case StateWaitingForContent:
		return "waiting_for_content"
	case StateExtracting:
		return "extracting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session tracks one scrape call from launch to close. It is not shared
// between goroutines.
type session struct {
	id          string
	state       State
	browser     Browser
	tab         Tab
	log         *logger.Logger
	transitions []State
}

func newSession(log *logger.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:          id,
		state:       StateUninitialized,
		log:         log.WithField("session", id),
		transitions: []State{StateUninitialized},
	}
}

func (s *session) to(next State) {
	s.log.Debug().
		Str("from", s.state.String()).
		Str("to", next.String()).
		Msg("browser session state change")
	s.state = next
	s.transitions = append(s.transitions, next)
}

// close releases the tab and browser; safe to call on any state.
func (s *session) close() {
	if s.state == StateClosed {
		return
	}
	if s.tab != nil {
		if err := s.tab.Close(); err != nil {
			s.log.Debug().Err(err).Msg("failed to close tab")
		}
		s.tab = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Warn().Err(err).Msg("failed to close browser")
		}
		s.browser = nil
	}
	s.to(StateClosed)
}
