package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix  = "<"
	choicePlaceholderSuffix  = ">"
	choiceSeparatorLiteral   = "|"
	choiceUsageEmptyTemplate = "`%s`"
	choiceUsageFullTemplate  = "`%s` %s"
	choiceParseErrorTemplate = "invalid value %q, expected one of %s"
	choiceTypeName           = "choice"
)

// FormatChoiceUsage renders "`<a|DEFAULT|c>` description" with the default option upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(displayChoices(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// AddChoiceFlag registers a string flag that only accepts one of choices, compared case-insensitively.
// The stored value is the lower-cased choice.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	value := &choiceValue{target: target, choices: normalizedChoices(choices)}
	value.current = strings.ToLower(strings.TrimSpace(defaultChoice))
	if target != nil {
		*target = value.current
	}
	flagSet.Var(value, name, FormatChoiceUsage(defaultChoice, choices, description))
}

type choiceValue struct {
	current string
	target  *string
	choices []string
}

func (value *choiceValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if choice != normalizedValue {
			continue
		}
		value.current = normalizedValue
		if value.target != nil {
			*value.target = normalizedValue
		}
		return nil
	}
	return fmt.Errorf(choiceParseErrorTemplate, rawValue, strings.Join(value.choices, choiceSeparatorLiteral))
}

func (value *choiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.current
}

func (value *choiceValue) Type() string {
	return choiceTypeName
}

func normalizedChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		normalized = append(normalized, normalizedChoice)
	}
	return normalized
}

func displayChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	display := normalizedChoices(choices)
	for index, choice := range display {
		if choice == normalizedDefault {
			display[index] = strings.ToUpper(choice)
		}
	}
	return display
}
