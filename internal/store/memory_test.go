package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAPIKey_Shape(t *testing.T) {
	fullKey, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(fullKey, "vgk_") {
		t.Errorf("key = %s, want vgk_ prefix", fullKey)
	}
	if len(fullKey) != 68 {
		t.Errorf("key length = %d, want 68", len(fullKey))
	}
	if prefix != fullKey[:8] {
		t.Errorf("prefix = %s, want first 8 chars of the key", prefix)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(fullKey)); err != nil {
		t.Error("hash does not verify against the key")
	}
}

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	s := NewMemoryStore()
	created, fullKey, err := s.CreateTenant(context.Background(), "first-bank", "email")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Name != "first-bank" || created.AlertChannel != "email" {
		t.Errorf("created = %+v", created)
	}
	if created.AllowBelow != nil || created.DenyAt != nil {
		t.Error("new tenant must carry no threshold overrides")
	}

	found, err := s.LookupByPrefix(context.Background(), fullKey[:8])
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("lookup by prefix = %+v, want the created tenant", found)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.APIKeyHash), []byte(fullKey)); err != nil {
		t.Error("stored hash does not verify the issued key")
	}

	missing, err := s.LookupByPrefix(context.Background(), "vgk_none")
	if err != nil || missing != nil {
		t.Errorf("unknown prefix = %+v/%v, want nil/nil", missing, err)
	}
}

func TestMemoryStore_DefaultAlertChannel(t *testing.T) {
	s := NewMemoryStore()
	created, _, err := s.CreateTenant(context.Background(), "quiet-bank", "")
	if err != nil {
		t.Fatal(err)
	}
	if created.AlertChannel != "log" {
		t.Errorf("alert channel = %s, want log default", created.AlertChannel)
	}
}

func TestMemoryStore_UpdatePartial(t *testing.T) {
	s := NewMemoryStore()
	created, _, _ := s.CreateTenant(context.Background(), "first-bank", "email")

	allow := 0.25
	updated, err := s.UpdateTenant(context.Background(), created.ID, UpdateTenantParams{
		AllowBelow: &allow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.AllowBelow == nil || *updated.AllowBelow != 0.25 {
		t.Errorf("allow_below = %v, want 0.25", updated.AllowBelow)
	}
	if updated.Name != "first-bank" || updated.AlertChannel != "email" {
		t.Error("untouched fields changed on partial update")
	}

	ghost, err := s.UpdateTenant(context.Background(), "ghost", UpdateTenantParams{})
	if err != nil || ghost != nil {
		t.Errorf("unknown tenant update = %+v/%v, want nil/nil", ghost, err)
	}
}

func TestMemoryStore_RotateAPIKey(t *testing.T) {
	s := NewMemoryStore()
	created, oldKey, _ := s.CreateTenant(context.Background(), "first-bank", "log")

	rotated, newKey, err := s.RotateAPIKey(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if newKey == oldKey {
		t.Fatal("rotation returned the same key")
	}
	if rotated.APIKeyPrefix != newKey[:8] {
		t.Error("prefix not updated to the new key")
	}
	if bcrypt.CompareHashAndPassword([]byte(rotated.APIKeyHash), []byte(oldKey)) == nil {
		t.Error("old key still verifies after rotation")
	}

	if _, _, err := s.RotateAPIKey(context.Background(), "ghost"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("rotate unknown tenant = %v, want sql.ErrNoRows", err)
	}
}

func TestMemoryStore_DeleteTenant(t *testing.T) {
	s := NewMemoryStore()
	created, _, _ := s.CreateTenant(context.Background(), "first-bank", "log")

	if err := s.DeleteTenant(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTenant(context.Background(), created.ID)
	if got != nil {
		t.Error("tenant still readable after delete")
	}
	if err := s.DeleteTenant(context.Background(), created.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("double delete = %v, want sql.ErrNoRows", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	created, _, _ := s.CreateTenant(context.Background(), "first-bank", "log")

	created.Name = "tampered"
	again, _ := s.GetTenant(context.Background(), created.ID)
	if again.Name != "first-bank" {
		t.Error("caller mutation leaked into the store")
	}

	list, err := s.ListTenants(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d tenants, want 1", len(list))
	}
}
