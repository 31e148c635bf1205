package clicks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"click-war/internal/logger"
	"click-war/internal/realtime"
)

const (
	scoresPath       = "scores"
	statsPath        = "stats"
	dbRequestTimeout = 5 * time.Second
	maxTeamLength    = 64
)

// ErrInvalidTeam is returned for team names outside [A-Za-z0-9_-] or longer
// than maxTeamLength.
var ErrInvalidTeam = errors.New("invalid team name")

// Scores maps team name to click count.
type Scores map[string]int64

// Total returns the sum of all team counts.
func (s Scores) Total() int64 {
	var total int64
	for _, n := range s {
		total += n
	}
	return total
}

// Teams returns the team names ordered by descending score, then by name.
func (s Scores) Teams() []string {
	teams := make([]string, 0, len(s))
	for team := range s {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if s[teams[i]] != s[teams[j]] {
			return s[teams[i]] > s[teams[j]]
		}
		return teams[i] < teams[j]
	})
	return teams
}

// Leader returns the team with the most clicks, or "" when there are none.
func (s Scores) Leader() (string, int64) {
	teams := s.Teams()
	if len(teams) == 0 {
		return "", 0
	}
	return teams[0], s[teams[0]]
}

// Stats summarizes activity across all teams.
type Stats struct {
	TotalClicks int64  `json:"totalClicks"`
	LastClickAt int64  `json:"lastClickAt,omitempty"` // server time, ms since epoch
	LastTeam    string `json:"lastTeam,omitempty"`
}

// Service runs the click war on top of the realtime database.
type Service struct {
	rt  *realtime.Client
	log *logger.Logger
}

// New builds a Service over the shared realtime client.
func New(rt *realtime.Client, log *logger.Logger) (*Service, error) {
	if rt == nil {
		return nil, fmt.Errorf("realtime client is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{rt: rt, log: log}, nil
}

// Click adds one click for team and returns the team's committed score.
// The score is incremented in a transaction; the shared stats node is then
// updated with server-side increment and timestamp directives.
func (s *Service) Click(ctx context.Context, team string) (int64, error) {
	team, err := normalizeTeam(team)
	if err != nil {
		return 0, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbRequestTimeout)
	defer cancel()

	var committed int64
	err = s.rt.Transaction(dbCtx, s.rt.Ref(scoresPath).Child(team), func(current realtime.Snapshot) (any, error) {
		var n int64
		if err := current.Decode(&n); err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		committed = n + 1
		return committed, nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment score for %s: %w", team, err)
	}

	err = s.rt.Update(dbCtx, s.rt.Ref(statsPath), map[string]any{
		"totalClicks": realtime.Increment(1),
		"lastClickAt": realtime.ServerTimestamp(),
		"lastTeam":    team,
	})
	if err != nil {
		// The score is already committed; stats lagging is not fatal.
		s.log.Warn().Err(err).Str("team", team).Msg("update click stats")
	}

	s.log.Debug().Str("team", team).Int64("score", committed).Msg("click committed")
	return committed, nil
}

// Scores reads the current scores once.
func (s *Service) Scores(ctx context.Context) (Scores, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbRequestTimeout)
	defer cancel()

	snap, err := s.rt.Get(dbCtx, s.rt.Ref(scoresPath))
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	return decodeScores(snap)
}

// Stats reads the shared stats node once.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbRequestTimeout)
	defer cancel()

	snap, err := s.rt.Get(dbCtx, s.rt.Ref(statsPath))
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	var stats Stats
	if err := snap.Decode(&stats); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// Watch calls fn with the scores now and then with the latest scores each
// time a poll sees them change, until the returned subscription is stopped
// or ctx is canceled.
func (s *Service) Watch(ctx context.Context, fn func(Scores)) (*realtime.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch function is required")
	}
	return s.rt.Subscribe(ctx, s.rt.Ref(scoresPath), func(snap realtime.Snapshot) {
		scores, err := decodeScores(snap)
		if err != nil {
			s.log.Warn().Err(err).Msg("decode scores")
			return
		}
		fn(scores)
	})
}

// Reset clears all scores and stats.
func (s *Service) Reset(ctx context.Context) error {
	dbCtx, cancel := context.WithTimeout(ctx, dbRequestTimeout)
	defer cancel()

	return errors.Join(
		s.rt.Set(dbCtx, s.rt.Ref(scoresPath), nil),
		s.rt.Set(dbCtx, s.rt.Ref(statsPath), nil),
	)
}

func decodeScores(snap realtime.Snapshot) (Scores, error) {
	scores := Scores{}
	if err := snap.Decode(&scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return scores, nil
}

func normalizeTeam(team string) (string, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTeam)
	}
	if len(team) > maxTeamLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidTeam, maxTeamLength)
	}
	// Keys end up unescaped in the REST path, so only URL-safe bytes pass.
	for i := 0; i < len(team); i++ {
		if !isTeamByte(team[i]) {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidTeam, team, team[i])
		}
	}
	return team, nil
}

func isTeamByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-':
		return true
	}
	return false
}
