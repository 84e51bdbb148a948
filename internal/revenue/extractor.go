package revenue

import (
	"strings"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
)

// DefaultThreshold is the minimum disclosure, in millions, that is surfaced.
const DefaultThreshold = 30.0

// Extractor finds the first threshold-passing revenue disclosure in text.
type Extractor struct {
	threshold float64
	patterns  []Pattern
	logger    *zap.Logger
}

// NewExtractor creates an extractor using DefaultPatterns. A non-positive
// threshold falls back to DefaultThreshold.
func NewExtractor(threshold float64, logger *zap.Logger) *Extractor {
	return NewExtractorWithPatterns(threshold, DefaultPatterns(), logger)
}

func NewExtractorWithPatterns(threshold float64, patterns []Pattern, logger *zap.Logger) *Extractor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{threshold: threshold, patterns: patterns, logger: logger}
}

func (e *Extractor) Threshold() float64 {
	return e.threshold
}

// Extract walks the pattern list in order and, within a pattern, its matches
// in text order. It returns the first match whose amount parses and reaches
// the threshold. Sub-threshold disclosures are never returned.
func (e *Extractor) Extract(text string) (*entity.RevenueSignal, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	for _, p := range e.patterns {
		for _, m := range p.findAll(text) {
			amount, err := Normalize(m.amount, m.unit)
			if err != nil {
				e.logger.Debug("discarding unparseable amount",
					zap.String("pattern", p.Name), zap.String("span", m.span), zap.Error(err))
				continue
			}
			if amount < e.threshold {
				continue
			}

			kind := p.Kind
			if m.kind != "" {
				k, ok := entity.ParseDisclosureKind(m.kind)
				if !ok {
					continue
				}
				kind = k
			}

			e.logger.Debug("revenue disclosure found",
				zap.String("pattern", p.Name), zap.String("kind", string(kind)), zap.Float64("amount", amount))
			return &entity.RevenueSignal{Kind: kind, Amount: amount, Span: m.span}, true
		}
	}
	return nil, false
}
