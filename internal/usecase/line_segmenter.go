package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// SkipReason explains why a receipt line did not become a product
type SkipReason string

const (
	SkipKeyword    SkipReason = "keyword"     // totals, tax, header/footer, payment lines
	SkipWeightLine SkipReason = "weight_line" // per-kg annotation not consumed by a pair
	SkipPriceLine  SkipReason = "price_line"  // unmatched price or discount line
	SkipShortName  SkipReason = "short_name"
	SkipNotFood    SkipReason = "not_food"
)

// DefaultMinNameLength is the shortest cleaned name accepted as a product
const DefaultMinNameLength = 3

var (
	// Matches an amount such as "1,79", "12.50 €", "3,00EUR"
	currencyAmountPattern = regexp.MustCompile(`(?i)\d+[,.]\d{2}\s*(?:€|eur|\$|£)?`)

	// Matches a per-kilogram price marker such as "EUR/kg"
	perKilogramMarkerPattern = regexp.MustCompile(`(?i)/\s*kg\b`)

	// Matches a weight signal such as "0,510 kg", "800g", "125 gr", "kg"
	weightMarkerPattern = regexp.MustCompile(`(?i)\d\s*(?:kg|g|gr|grammi)\b|\bkg\b|/\s*kg\b`)
)

// Candidate is a receipt line accepted as a food description, with its optional weight/price line
type Candidate struct {
	Line domain.RawLine
	Name string          // normalized name
	Pair *domain.RawLine // nil when the next line carried no weight signal
}

// Segmentation is the output of one segmenter pass
type Segmentation struct {
	Candidates []Candidate
	Skipped    map[SkipReason]int
}

// LineSegmenter splits OCR text into candidate product lines
type LineSegmenter struct {
	skipKeywords  []string
	classifier    *FoodClassifier
	minNameLength int
	logger        *zap.Logger
}

// NewLineSegmenter creates a segmenter. A non-positive minNameLength uses DefaultMinNameLength.
func NewLineSegmenter(lexicon domain.Lexicon, classifier *FoodClassifier, minNameLength int, logger *zap.Logger) *LineSegmenter {
	if minNameLength <= 0 {
		minNameLength = DefaultMinNameLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineSegmenter{
		skipKeywords:  lexicon.SkipKeywords,
		classifier:    classifier,
		minNameLength: minNameLength,
		logger:        logger,
	}
}

// SplitLines breaks OCR text into trimmed, non-blank lines numbered from zero
func SplitLines(text string) []domain.RawLine {
	var lines []domain.RawLine
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, domain.RawLine{Index: len(lines), Text: l})
	}
	return lines
}

// Segment walks the lines once. A food description may consume the line right
// after it when that line carries a weight; nothing further ahead is examined
// and a consumed line is never revisited.
func (s *LineSegmenter) Segment(text string) Segmentation {
	lines := SplitLines(text)
	seg := Segmentation{Skipped: make(map[SkipReason]int)}

	i := 0
	for i < len(lines) {
		line := lines[i]
		name, reason, ok := s.accept(line.Text)
		if !ok {
			seg.Skipped[reason]++
			s.logger.Debug("receipt line skipped",
				zap.Int("line", line.Index),
				zap.String("text", line.Text),
				zap.String("reason", string(reason)))
			i++
			continue
		}

		candidate := Candidate{Line: line, Name: name}
		if i+1 < len(lines) && weightMarkerPattern.MatchString(lines[i+1].Text) {
			pair := lines[i+1]
			candidate.Pair = &pair
			i += 2
		} else {
			i++
		}
		seg.Candidates = append(seg.Candidates, candidate)
	}

	return seg
}

// accept applies the line filters in order and returns the cleaned name of an accepted line
func (s *LineSegmenter) accept(text string) (string, SkipReason, bool) {
	lower := strings.ToLower(text)
	if _, found := containsAny(lower, s.skipKeywords); found {
		return "", SkipKeyword, false
	}
	if perKilogramMarkerPattern.MatchString(text) {
		return "", SkipWeightLine, false
	}
	if currencyAmountPattern.MatchString(text) {
		return "", SkipPriceLine, false
	}

	name := NormalizeName(text)
	if utf8.RuneCountInString(name) < s.minNameLength {
		return "", SkipShortName, false
	}
	if !s.classifier.IsFood(name) {
		return "", SkipNotFood, false
	}
	return name, "", true
}
