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

package notify

import (
	"fmt"
	"strings"
	"time"

	"deposit-desk-go/internal/common"
)

const timestampLayout = "2006-01-02 15:04:05"

func depositCaption(notice DepositNotice, at time.Time) string {
	return fmt.Sprintf("💰 *NEW DEPOSIT*\n\n"+
		"👤 *User:* `%s`\n"+
		"📧 *Email:* %s\n"+
		"💵 *Amount:* %s\n"+
		"⏰ *Time:* %s",
		common.EscapeMarkdownCode(notice.UserId),
		common.EscapeMarkdown(notice.Email),
		common.EscapeMarkdown(common.FormatAmount(notice.Amount)),
		common.EscapeMarkdown(at.Format(timestampLayout)))
}

func withdrawalCaption(notice WithdrawalNotice, at time.Time) string {
	return fmt.Sprintf("🏧 *WITHDRAWAL RECEIPT*\n\n"+
		"👤 *User:* `%s` \\| Full name: `%s`\n"+
		"📧 *Email:* `%s` \\| Card number: `%s`\n"+
		"💸 *Amount:* `%s`\n"+
		"🕒 *Time:* `%s`",
		common.EscapeMarkdownCode(notice.UserId),
		common.EscapeMarkdownCode(notice.FullName),
		common.EscapeMarkdownCode(notice.Email),
		common.EscapeMarkdownCode(notice.CardNumber),
		common.EscapeMarkdownCode(common.FormatAmount(notice.Amount)),
		common.EscapeMarkdownCode(at.Format(timestampLayout)))
}

func registrationText(notice RegistrationNotice, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *NEW USER*\n\n👤 *Name:* %s\n📧 *Email:* %s\n🆔 *Id:* `%s`",
		common.EscapeMarkdown(notice.Name),
		common.EscapeMarkdown(notice.Email),
		common.EscapeMarkdownCode(notice.UserId))
	if notice.PromoCode != "" {
		fmt.Fprintf(&b, "\n🎁 *Promo code:* `%s` \\(%d%%\\)", common.EscapeMarkdownCode(notice.PromoCode), notice.PromoPercent)
	}
	fmt.Fprintf(&b, "\n⏰ *Time:* %s", common.EscapeMarkdown(at.Format(timestampLayout)))
	return b.String()
}
