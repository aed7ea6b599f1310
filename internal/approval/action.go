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

package approval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedPayload is returned for callback data that is not a valid action token
var ErrMalformedPayload = errors.New("malformed callback payload")

type Kind string

const (
	KindConfirm Kind = "confirm"
	KindReject  Kind = "reject"
)

const tokenSeparator = "_"

// Action is a decoded operator button press: {kind}_{user_id}_{amount}
type Action struct {
	Kind   Kind
	UserId string
	Amount decimal.Decimal
}

// ParseAction decodes callback data. It never partially succeeds: any
// deviation from exactly three fields, a known kind, a non-empty user id and a
// positive decimal amount yields ErrMalformedPayload.
func ParseAction(data string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(data), tokenSeparator)
	if len(parts) != 3 {
		return Action{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedPayload, len(parts))
	}

	kind := Kind(parts[0])
	if kind != KindConfirm && kind != KindReject {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrMalformedPayload, parts[0])
	}

	userId := strings.TrimSpace(parts[1])
	if userId == "" {
		return Action{}, fmt.Errorf("%w: empty user id", ErrMalformedPayload)
	}

	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return Action{}, fmt.Errorf("%w: invalid amount %q", ErrMalformedPayload, parts[2])
	}
	if !amount.IsPositive() {
		return Action{}, fmt.Errorf("%w: amount must be positive, got %s", ErrMalformedPayload, amount.String())
	}

	return Action{Kind: kind, UserId: userId, Amount: amount}, nil
}

// Token encodes the action as callback data.
func (a Action) Token() string {
	return strings.Join([]string{string(a.Kind), a.UserId, a.Amount.String()}, tokenSeparator)
}

func ConfirmToken(userId string, amount decimal.Decimal) string {
	return Action{Kind: KindConfirm, UserId: userId, Amount: amount}.Token()
}

func RejectToken(userId string, amount decimal.Decimal) string {
	return Action{Kind: KindReject, UserId: userId, Amount: amount}.Token()
}
