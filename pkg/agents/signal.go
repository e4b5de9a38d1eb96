package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// Field patterns for the risk manager's structured output. Tolerant of
// case and of whitespace after the colon; prices may carry $ and thousands
// separators.
var (
	reDecision   = regexp.MustCompile(`(?i)\*\*DECISION\*\*[:\s]+(.+)`)
	reConfidence = regexp.MustCompile(`(?i)\*\*Confidence\*\*[:\s]+(\d{1,3}|\w+)`)
	reEntry      = regexp.MustCompile(`(?i)\*\*Entry\*\*[:\s]+\$?([\d,.]+)`)
	reStopLoss   = regexp.MustCompile(`(?i)\*\*Stop-loss\*\*[:\s]+\$?([\d,.]+)`)
	reTarget1    = regexp.MustCompile(`(?i)\*\*Target 1\*\*[:\s]+\$?([\d,.]+)`)
	reTarget2    = regexp.MustCompile(`(?i)\*\*Target 2\*\*[:\s]+\$?([\d,.]+)`)
	reLessons    = regexp.MustCompile(`(?i)\*\*Lessons applied\*\*[:\s]+(.+)`)
)

// DecisionFields is the structured view of a risk manager verdict. Values
// stay as captured strings; validation converts them.
type DecisionFields struct {
	Decision   string
	Confidence string
	Entry      string
	StopLoss   string
	Target1    string
	Target2    string
	Lessons    string
}

// Empty reports whether nothing at all was parsed.
func (f DecisionFields) Empty() bool {
	return f == DecisionFields{}
}

// ParseDecisionFields extracts the structured fields from free-form verdict
// text. Missing fields stay empty.
func ParseDecisionFields(text string) DecisionFields {
	capture := func(re *regexp.Regexp) string {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(m[1])
	}
	price := func(re *regexp.Regexp) string {
		return strings.ReplaceAll(capture(re), ",", "")
	}

	return DecisionFields{
		Decision:   capture(reDecision),
		Confidence: capture(reConfidence),
		Entry:      price(reEntry),
		StopLoss:   price(reStopLoss),
		Target1:    price(reTarget1),
		Target2:    price(reTarget2),
		Lessons:    capture(reLessons),
	}
}

// parsePrice converts a captured price; empty means absent (0, ok).
func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidateDecision checks a parsed verdict for internal consistency and
// returns human-readable issues for the refinement pass. An empty parse
// yields no issues since there is nothing to check.
func ValidateDecision(fields DecisionFields, marketType, suggestedDirection string, hasMemory bool) []string {
	if fields.Empty() {
		return nil
	}

	var issues []string

	entry, okE := parsePrice(fields.Entry)
	sl, okS := parsePrice(fields.StopLoss)
	tp1, okT1 := parsePrice(fields.Target1)
	_, okT2 := parsePrice(fields.Target2)
	if !okE || !okS || !okT1 || !okT2 {
		return []string{"Entry/SL/Target prices are not valid numbers."}
	}

	decision := strings.ToUpper(fields.Decision)
	maxSL := MaxStopLossPct(marketType)

	if entry > 0 && sl > 0 {
		slPct := (entry - sl) / entry * 100
		if slPct < 0 {
			slPct = -slPct
		}
		if slPct > maxSL {
			issues = append(issues,
				fmt.Sprintf("Stop-loss distance %.1f%% exceeds max %.0f%%.", slPct, maxSL))
		}
	}

	if suggestedDirection == "long" && strings.Contains(decision, "SELL") {
		issues = append(issues,
			fmt.Sprintf("Decision '%s' contradicts locked LONG direction.", decision))
	} else if suggestedDirection == "short" && strings.Contains(decision, "BUY") {
		issues = append(issues,
			fmt.Sprintf("Decision '%s' contradicts locked SHORT direction.", decision))
	}

	if strings.Contains(decision, "BUY") && entry > 0 {
		if sl > 0 && sl > entry {
			issues = append(issues,
				fmt.Sprintf("For BUY, Stop-loss (%g) should be below Entry (%g).", sl, entry))
		}
		if tp1 > 0 && tp1 < entry {
			issues = append(issues,
				fmt.Sprintf("For BUY, Target 1 (%g) should be above Entry (%g).", tp1, entry))
		}
	}

	if strings.Contains(decision, "SELL") && entry > 0 {
		if sl > 0 && sl < entry {
			issues = append(issues,
				fmt.Sprintf("For SELL, Stop-loss (%g) should be above Entry (%g).", sl, entry))
		}
		if tp1 > 0 && tp1 > entry {
			issues = append(issues,
				fmt.Sprintf("For SELL, Target 1 (%g) should be below Entry (%g).", tp1, entry))
		}
	}

	if conf, err := strconv.Atoi(fields.Confidence); err == nil {
		if conf < 0 || conf > 100 {
			issues = append(issues, fmt.Sprintf("Confidence %d must be 0-100.", conf))
		}
	} else {
		switch strings.ToLower(fields.Confidence) {
		case "high", "medium", "low":
		default:
			issues = append(issues,
				fmt.Sprintf("Confidence must be integer 0-100, got '%s'", fields.Confidence))
		}
	}

	if hasMemory {
		switch strings.ToLower(fields.Lessons) {
		case "", "none", "n/a":
			issues = append(issues, "Past lessons were provided but not referenced.")
		}
	}

	return issues
}

// ExtractDecision reduces a full verdict to the bare action word using the
// quick model, e.g. "BUY".
func ExtractDecision(ctx context.Context, engine reasoning.Engine, fullSignal, marketType string) (string, error) {
	valid := ValidActions(marketType)
	system := fmt.Sprintf(
		"You are an efficient assistant designed to analyze paragraphs or financial reports provided by a group of analysts. "+
			"Your task is to extract the investment decision: %s. "+
			"Provide only the extracted decision (%s) as your output, without adding any additional text or information.",
		valid, valid)

	out, err := engine.ProcessMessages(ctx, []reasoning.Message{
		{Role: reasoning.RoleSystem, Content: system},
		{Role: reasoning.RoleUser, Content: fullSignal},
	})
	if err != nil {
		return "", fmt.Errorf("signal extraction: %w", err)
	}
	return strings.TrimSpace(out), nil
}
