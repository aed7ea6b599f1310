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
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantKind   Kind
		wantUser   string
		wantAmount string
		wantErr    bool
	}{
		{name: "confirm", data: "confirm_3f2a9c1e-7b7d-4c8e-9a55-1d2e3f4a5b6c_100", wantKind: KindConfirm, wantUser: "3f2a9c1e-7b7d-4c8e-9a55-1d2e3f4a5b6c", wantAmount: "100"},
		{name: "reject with decimals", data: "reject_user1_250.75", wantKind: KindReject, wantUser: "user1", wantAmount: "250.75"},
		{name: "surrounding whitespace", data: " confirm_user1_5 ", wantKind: KindConfirm, wantUser: "user1", wantAmount: "5"},
		{name: "too few fields", data: "confirm_user1", wantErr: true},
		{name: "too many fields", data: "confirm_user_1_100", wantErr: true},
		{name: "unknown action", data: "approve_user1_100", wantErr: true},
		{name: "withdraw prefix", data: "withdraw_confirm_user1", wantErr: true},
		{name: "empty user", data: "confirm__100", wantErr: true},
		{name: "non numeric amount", data: "confirm_user1_abc", wantErr: true},
		{name: "zero amount", data: "confirm_user1_0", wantErr: true},
		{name: "negative amount", data: "reject_user1_-5", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("Expected ErrMalformedPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q) failed: %v", tt.data, err)
			}
			if action.Kind != tt.wantKind || action.UserId != tt.wantUser {
				t.Errorf("Got %s/%s, want %s/%s", action.Kind, action.UserId, tt.wantKind, tt.wantUser)
			}
			if !action.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Got amount %s, want %s", action.Amount.String(), tt.wantAmount)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("1234.5")

	confirm := ConfirmToken("user-1", amount)
	if confirm != "confirm_user-1_1234.5" {
		t.Errorf("Unexpected confirm token %q", confirm)
	}

	action, err := ParseAction(RejectToken("user-1", amount))
	if err != nil {
		t.Fatalf("ParseAction failed: %v", err)
	}
	if action.Kind != KindReject || action.UserId != "user-1" || !action.Amount.Equal(amount) {
		t.Errorf("Unexpected action %+v", action)
	}
}
