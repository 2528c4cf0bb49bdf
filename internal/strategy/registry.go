package strategy

import (
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Registry builds strategies from configured default parameters. Request
// parameters override configured ones, which override built-in defaults.
type Registry struct {
	defaults map[Kind]map[string]any
	logger   *zap.Logger
}

// NewRegistry creates a registry. Keys of defaults may be any name
// ParseKind accepts; unknown keys are logged and ignored.
func NewRegistry(defaults map[string]map[string]any, logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}

	r := &Registry{
		defaults: make(map[Kind]map[string]any, len(defaults)),
		logger:   l,
	}
	for name, params := range defaults {
		kind, err := ParseKind(name)
		if err != nil {
			l.Warn("ignoring defaults for unknown strategy", zap.String("strategy", name))
			continue
		}
		r.defaults[kind] = lo.Assign(r.defaults[kind], params)
	}
	return r
}

// Build parses name with configured defaults overlaid by params.
func (r *Registry) Build(name string, params map[string]any) (Strategy, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}

	merged := lo.Assign(r.defaults[kind], params)
	s, err := Parse(string(kind), merged)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("strategy built",
		zap.String("strategy", s.Name()),
		zap.Any("params", s.Params()),
	)
	return s, nil
}

// GetAll returns every strategy kind with its effective defaults. Kinds
// whose configured defaults fail validation are skipped with a warning.
func (r *Registry) GetAll() []Strategy {
	result := make([]Strategy, 0, len(Kinds()))
	for _, k := range Kinds() {
		s, err := r.Build(string(k), nil)
		if err != nil {
			r.logger.Warn("invalid configured defaults",
				zap.String("strategy", string(k)),
				zap.Error(err),
			)
			continue
		}
		result = append(result, s)
	}
	return result
}
