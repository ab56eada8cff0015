package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/table"
)

// Notifier is told about every table written by a Store
type Notifier interface {
	TableSaved(kind, path string)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Store saves and loads tables under a directory
type Store struct {
	dir      string
	runID    string
	logger   zerolog.Logger
	notifier Notifier
}

// NewStore creates a store rooted at dir. Tables it writes carry runID.
func NewStore(dir, runID string, logger zerolog.Logger) *Store {
	if runID == "" {
		runID = NewRunID()
	}
	return &Store{
		dir:    dir,
		runID:  runID,
		logger: logger.With().Str("component", "storage").Str("dir", dir).Logger(),
	}
}

// SetNotifier installs a notifier for saved tables
func (s *Store) SetNotifier(n Notifier) {
	s.notifier = n
}

// Dir returns the store directory
func (s *Store) Dir() string { return s.dir }

// RunID returns the run id stamped on saved tables
func (s *Store) RunID() string { return s.runID }

// Path returns where a table with key is stored
func (s *Store) Path(key Key) string {
	return filepath.Join(s.dir, key.FileName())
}

func (s *Store) save(key Key, m *mat.Dense) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	path := s.Path(key)
	meta := Meta{Key: key, RunID: s.runID, Created: time.Now().UTC()}
	if err := writeFile(path, meta, m); err != nil {
		return "", err
	}
	s.logger.Info().Str("kind", string(key.Kind)).Str("path", path).Msg("Table saved")
	if s.notifier != nil {
		s.notifier.TableSaved(string(key.Kind), path)
	}
	return path, nil
}

func (s *Store) load(key Key) (Meta, *mat.Dense, error) {
	return LoadFile(s.Path(key), key)
}

// LoadFile reads a table from path and checks its header matches key
func LoadFile(path string, key Key) (Meta, *mat.Dense, error) {
	if err := key.Validate(); err != nil {
		return Meta{}, nil, err
	}
	meta, m, err := readFile(path)
	if err != nil {
		return Meta{}, nil, err
	}
	if meta.Key != key {
		return Meta{}, nil, fmt.Errorf("%w: %s holds %v, want %v", ErrDomainMismatch, path, meta.Key, key)
	}
	return meta, m, nil
}

// SaveValues writes a value table
func (s *Store) SaveValues(key Key, v *table.Grid3[float64]) (string, error) {
	key = key.WithKind(KindValue)
	if v.Side() != key.TargetScore {
		return "", fmt.Errorf("%w: value table side %d for %v", ErrDomainMismatch, v.Side(), key)
	}
	return s.save(key, table.Matrix3(v))
}

// LoadValues reads a value table
func (s *Store) LoadValues(key Key) (*table.Grid3[float64], error) {
	key = key.WithKind(KindValue)
	_, m, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return grid3[float64](m, key)
}

// SavePolicy writes a policy table
func (s *Store) SavePolicy(key Key, p *game.Policy) (string, error) {
	key = key.WithKind(KindPolicy)
	if p.Target() != key.TargetScore {
		return "", fmt.Errorf("%w: policy for target %d under %v", ErrDomainMismatch, p.Target(), key)
	}
	return s.save(key, table.Matrix3(p.Grid()))
}

// LoadPolicy reads a policy table
func (s *Store) LoadPolicy(key Key) (*game.Policy, error) {
	return LoadPolicyFile(s.Path(key.WithKind(KindPolicy)), key)
}

// LoadPolicyFile reads a policy table from an explicit path
func LoadPolicyFile(path string, key Key) (*game.Policy, error) {
	key = key.WithKind(KindPolicy)
	_, m, err := LoadFile(path, key)
	if err != nil {
		return nil, err
	}
	g, err := grid3[uint8](m, key)
	if err != nil {
		return nil, err
	}
	p, err := game.PolicyFromGrid(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return p, nil
}

// SaveQ writes an action-value table
func (s *Store) SaveQ(key Key, q *table.Grid4[float64]) (string, error) {
	key = key.WithKind(KindQ)
	if q.Side() != key.TargetScore || q.Depth() != game.NumActions {
		return "", fmt.Errorf("%w: q table %dx%d for %v", ErrDomainMismatch, q.Side(), q.Depth(), key)
	}
	return s.save(key, table.Matrix4(q))
}

// LoadQ reads an action-value table
func (s *Store) LoadQ(key Key) (*table.Grid4[float64], error) {
	key = key.WithKind(KindQ)
	_, m, err := s.load(key)
	if err != nil {
		return nil, err
	}
	q, err := table.Grid4FromMatrix[float64](m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if q.Side() != key.TargetScore || q.Depth() != game.NumActions {
		return nil, fmt.Errorf("%w: q table %dx%d for %v", ErrDomainMismatch, q.Side(), q.Depth(), key)
	}
	return q, nil
}

func grid3[T table.Number](m *mat.Dense, key Key) (*table.Grid3[T], error) {
	g, err := table.Grid3FromMatrix[T](m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if g.Side() != key.TargetScore {
		return nil, fmt.Errorf("%w: table side %d for %v", ErrDomainMismatch, g.Side(), key)
	}
	return g, nil
}
