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

package database

import (
	"context"
	"errors"
	"testing"

	"deposit-desk-go/internal/store"
)

func TestCreateUser(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	user, err := service.CreateUser(ctx, store.CreateUserParams{
		UserId:       "user1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Id != "user1" || user.Email != "alice@example.com" || user.PasswordHash != "$2a$10$hash" {
		t.Errorf("Unexpected user: %+v", user)
	}

	byEmail, err := service.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.Id != "user1" {
		t.Errorf("Expected user1, got %s", byEmail.Id)
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(users))
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "dup@example.com", "", 0)

	_, err := service.CreateUser(ctx, store.CreateUserParams{UserId: "user2", Name: "Bob", Email: "dup@example.com"})
	if !errors.Is(err, store.ErrEmailExists) {
		t.Fatalf("Expected ErrEmailExists, got %v", err)
	}

	_, err = service.GetLedgerEntry(ctx, "user2")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected no ledger entry for rejected user, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	if _, err := service.GetUserById(ctx, "nobody"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by id, got %v", err)
	}
	if _, err := service.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by email, got %v", err)
	}
}
