package domain

import (
	"errors"
	"testing"
)

func TestResourceModelValidate(t *testing.T) {
	if err := IndividualResource().Validate(); err != nil {
		t.Fatalf("individual resource: %v", err)
	}
	if err := SharedPoolResource("pool-1").Validate(); err != nil {
		t.Fatalf("shared pool resource: %v", err)
	}
	if err := SharedPoolResource("   ").Validate(); !errors.Is(err, ErrEmptyPoolID) {
		t.Fatalf("expected empty pool id error, got %v", err)
	}
	if err := (ResourceModel{}).Validate(); !errors.Is(err, ErrInvalidResourceKind) {
		t.Fatalf("expected invalid kind error, got %v", err)
	}
}

func TestResourceModelPooled(t *testing.T) {
	if IndividualResource().Pooled() {
		t.Fatal("individual resource must not report pooled")
	}
	if !SharedPoolResource("pool-1").Pooled() {
		t.Fatal("shared pool resource must report pooled")
	}
}

func TestNewParticipantNormalizesInput(t *testing.T) {
	p, err := NewParticipant(NewParticipantInput{
		UserID:  "  user-1  ",
		ActorID: " actor-1 ",
		Name:    "  Romi  ",
		Snapshot: CombatSnapshot{
			Attack:  4,
			Defense: 2,
		},
	})
	if err != nil {
		t.Fatalf("new participant: %v", err)
	}
	if p.UserID != "user-1" || p.ActorID != "actor-1" || p.Name != "Romi" {
		t.Fatalf("expected trimmed fields, got %+v", p)
	}
	if p.Snapshot.Attack != 4 || p.Snapshot.Defense != 2 {
		t.Fatalf("expected snapshot carried over, got %+v", p.Snapshot)
	}
}

func TestNewParticipantValidation(t *testing.T) {
	tests := []struct {
		name  string
		input NewParticipantInput
		err   error
	}{
		{"empty user", NewParticipantInput{ActorID: "a", Name: "n"}, ErrEmptyUserID},
		{"empty actor", NewParticipantInput{UserID: "u", Name: "n"}, ErrEmptyActorID},
		{"empty name", NewParticipantInput{UserID: "u", ActorID: "a"}, ErrEmptyParticipantName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParticipant(tt.input); !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}
