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
	"fmt"
	"strings"

	"deposit-desk-go/internal/common"
	"deposit-desk-go/internal/models"

	"github.com/shopspring/decimal"
)

// ConfirmedCaption replaces the notification after a successful confirm.
func ConfirmedCaption(outcome *models.DepositOutcome, operator *models.Operator) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *Deposit confirmed*\n\n👤 *User:* `%s`\n💵 *Amount:* %s\n",
		common.EscapeMarkdownCode(outcome.UserId), common.EscapeMarkdown(common.FormatAmount(outcome.Amount)))

	if outcome.BonusApplied() {
		fmt.Fprintf(&b, "🎁 *Promo bonus:* %s \\(%d%%\\)\n",
			common.EscapeMarkdown(common.FormatAmount(outcome.Bonus)), outcome.BonusPercent)
		fmt.Fprintf(&b, "➕ *Credited:* %s\n", common.EscapeMarkdown(common.FormatAmount(outcome.FinalAmount)))
	}

	fmt.Fprintf(&b, "💰 *New balance:* %s", common.EscapeMarkdown(common.FormatAmount(outcome.NewBalance)))
	if outcome.FirstDeposit {
		b.WriteString("\n⭐ First deposit")
	}
	b.WriteString(operatorLine(operator))
	return b.String()
}

// RejectedCaption replaces the notification after a reject.
func RejectedCaption(userId string, amount decimal.Decimal, operator *models.Operator) string {
	return fmt.Sprintf("❌ *Deposit rejected*\n\n👤 *User:* `%s`\n💵 *Amount:* %s%s",
		common.EscapeMarkdownCode(userId), common.EscapeMarkdown(common.FormatAmount(amount)), operatorLine(operator))
}

// ExpiredCaption replaces the notification of a request nobody resolved in time.
func ExpiredCaption(request models.DepositRequest) string {
	return fmt.Sprintf("⌛ *Deposit request expired*\n\n👤 *User:* `%s`\n💵 *Amount:* %s",
		common.EscapeMarkdownCode(request.UserId), common.EscapeMarkdown(common.FormatAmount(request.Amount)))
}

func operatorLine(operator *models.Operator) string {
	if operator == nil {
		return ""
	}
	if operator.Username != "" {
		return "\n🛂 by @" + common.EscapeMarkdown(operator.Username)
	}
	return fmt.Sprintf("\n🛂 by operator %d", operator.TelegramId)
}
