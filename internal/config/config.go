package config

import (
	"fmt"
	"strings"
)

// Recognized configuration keys.
const (
	KeyTrunkBookmark = "trunk_bookmark"
	KeyCheckCommand  = "check_command"
	KeyStrategy      = "strategy"
)

// ValidKeys lists every configuration key jjq recognizes.
var ValidKeys = []string{KeyTrunkBookmark, KeyCheckCommand, KeyStrategy}

// DefaultTrunkBookmark applies when trunk_bookmark is unset.
const DefaultTrunkBookmark = "main"

// Strategy selects how a candidate is landed on trunk.
type Strategy string

const (
	// StrategyMerge lands a two-parent merge commit (trunk first,
	// candidate second).
	StrategyMerge Strategy = "merge"
	// StrategyRebase lands a linearized duplicate, preserving the
	// candidate's change ID.
	StrategyRebase Strategy = "rebase"
)

// DefaultStrategy applies to repositories whose config predates the
// strategy key. New repositories get rebase from init.
const DefaultStrategy = StrategyMerge

// ParseStrategy validates a strategy value.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyMerge, StrategyRebase:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("invalid value for strategy: %s\nvalid values: rebase, merge", s)
	}
}

func configKey(key string) string {
	return "config/" + key
}

// Get returns an explicitly set configuration value.
func (s *Store) Get(key string) (string, bool, error) {
	return s.Read(configKey(key))
}

// TrunkBookmark returns the configured trunk bookmark name, or the
// default.
func (s *Store) TrunkBookmark() (string, error) {
	v, ok, err := s.Get(KeyTrunkBookmark)
	if err != nil {
		return "", err
	}
	if !ok || v == "" {
		return DefaultTrunkBookmark, nil
	}
	return v, nil
}

// CheckCommand returns the configured check command; ok is false when
// none is set.
func (s *Store) CheckCommand() (string, bool, error) {
	return s.Get(KeyCheckCommand)
}

// Strategy returns the configured landing strategy, or the default.
func (s *Store) Strategy() (Strategy, error) {
	v, ok, err := s.Get(KeyStrategy)
	if err != nil {
		return "", err
	}
	if !ok {
		return DefaultStrategy, nil
	}
	return ParseStrategy(v)
}

// Set validates and writes a configuration value.
func (s *Store) Set(key, value string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("unknown config key: %s\nvalid keys: %s", key, strings.Join(ValidKeys, ", "))
	}
	if key == KeyStrategy {
		if _, err := ParseStrategy(value); err != nil {
			return err
		}
	}
	return s.Write(configKey(key), value, "config: set "+key)
}

// IsValidKey reports whether key is a recognized configuration key.
func IsValidKey(key string) bool {
	for _, k := range ValidKeys {
		if k == key {
			return true
		}
	}
	return false
}
