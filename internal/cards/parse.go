/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cards

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUsage             = errors.New("not enough arguments")
	ErrInvalidCardNumber = errors.New("invalid card number format")
	ErrMissingHolder     = errors.New("card holder name is required")
)

// minTokens is the command plus four number groups, a name and a bank
const minTokens = 7

// CardInput is a validated /set_card command
type CardInput struct {
	CardNumber string
	HolderName string
	Bank       string
}

// ParseSetCard parses either
//
//	/set_card 1234 5678 9012 3456 | Ivan Ivanov | Tinkoff
//	/set_card 1234 5678 9012 3456 Ivan Ivanov Tinkoff
//	/set_card 1234 5678 9012 3456 Ivan Ivanov (Tinkoff)
//
// In the positional form a parenthesised last token is the bank; otherwise
// the last token is the bank when at least two tokens follow the number.
func ParseSetCard(text string) (CardInput, error) {
	tokens := strings.Fields(text)
	if len(tokens) < minTokens {
		return CardInput{}, ErrUsage
	}

	var input CardInput
	if strings.Contains(text, "|") {
		sections := strings.Split(text, "|")
		head := strings.Fields(sections[0])
		if len(head) == 0 {
			return CardInput{}, fmt.Errorf("%w: missing card number", ErrInvalidCardNumber)
		}
		number, err := cardNumber(head[1:])
		if err != nil {
			return CardInput{}, err
		}
		input.CardNumber = number
		if len(sections) > 1 {
			input.HolderName = strings.TrimSpace(sections[1])
		}
		if len(sections) > 2 {
			input.Bank = strings.TrimSpace(sections[2])
		}
	} else {
		number, err := cardNumber(tokens[1:5])
		if err != nil {
			return CardInput{}, err
		}
		input.CardNumber = number

		rest := tokens[5:]
		last := rest[len(rest)-1]
		switch {
		case len(last) >= 2 && strings.HasPrefix(last, "(") && strings.HasSuffix(last, ")"):
			input.Bank = last[1 : len(last)-1]
			input.HolderName = strings.Join(rest[:len(rest)-1], " ")
		case len(rest) >= 2:
			input.Bank = last
			input.HolderName = strings.Join(rest[:len(rest)-1], " ")
		default:
			input.HolderName = strings.Join(rest, " ")
		}
	}

	input.HolderName = strings.TrimSpace(input.HolderName)
	input.Bank = strings.TrimSpace(input.Bank)
	if input.HolderName == "" {
		return CardInput{}, ErrMissingHolder
	}
	return input, nil
}

func cardNumber(groups []string) (string, error) {
	if len(groups) != 4 {
		return "", fmt.Errorf("%w: expected 4 groups, got %d", ErrInvalidCardNumber, len(groups))
	}
	for _, group := range groups {
		if len(group) != 4 || strings.Trim(group, "0123456789") != "" {
			return "", fmt.Errorf("%w: %q is not 4 digits", ErrInvalidCardNumber, group)
		}
	}
	return strings.Join(groups, " "), nil
}

// NormalizeCardNumber accepts a 16-digit card number with or without
// separators and returns it in the stored "1234 5678 9012 3456" form.
func NormalizeCardNumber(s string) (string, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
	if len(digits) != 16 {
		return "", fmt.Errorf("%w: expected 16 digits", ErrInvalidCardNumber)
	}
	groups := make([]string, 0, 4)
	for i := 0; i < len(digits); i += 4 {
		groups = append(groups, digits[i:i+4])
	}
	return cardNumber(groups)
}
