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
	"context"

	"deposit-desk-go/internal/models"
)

// Button is an inline keyboard button carrying raw callback data
type Button struct {
	Text string
	Data string
}

// Outgoing is one message for an operator chat. When PhotoPath is set the
// text is sent as the photo caption.
type Outgoing struct {
	Text      string
	PhotoPath string
	Buttons   []Button
}

// Messenger delivers messages to chats and edits them afterwards
type Messenger interface {
	Send(ctx context.Context, chatId int64, msg Outgoing) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, text string) error
}
