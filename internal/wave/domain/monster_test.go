package domain

import (
	"errors"
	"testing"
)

func TestMonsterTemplateValidate(t *testing.T) {
	valid := MonsterTemplate{Name: "Blue Bokoblin", SpeciesKey: "bokoblin", Tier: 2, BaseHearts: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid template, got %v", err)
	}

	tests := []struct {
		name     string
		template MonsterTemplate
		err      error
	}{
		{"empty name", MonsterTemplate{SpeciesKey: "bokoblin", Tier: 2, BaseHearts: 5}, ErrEmptyMonsterName},
		{"empty species", MonsterTemplate{Name: "Bokoblin", Tier: 2, BaseHearts: 5}, ErrEmptySpeciesKey},
		{"zero tier", MonsterTemplate{Name: "Bokoblin", SpeciesKey: "bokoblin", BaseHearts: 5}, ErrInvalidTier},
		{"zero hearts", MonsterTemplate{Name: "Bokoblin", SpeciesKey: "bokoblin", Tier: 2}, ErrInvalidBaseHearts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.template.Validate(); !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestInstantiateStartsAtFullHearts(t *testing.T) {
	template := MonsterTemplate{Name: "Igneo Talus", SpeciesKey: "talus", Tier: 8, BaseHearts: 30}
	instance := template.Instantiate()
	if instance.CurrentHearts != 30 || instance.MaxHearts != 30 {
		t.Fatalf("expected full 30 hearts, got %d/%d", instance.CurrentHearts, instance.MaxHearts)
	}
	if instance.Defeated() {
		t.Fatal("fresh instance must not be defeated")
	}
}

func TestApplyDamageClampsAndReportsApplied(t *testing.T) {
	instance := MonsterInstance{Name: "Keese", SpeciesKey: "keese", Tier: 1, CurrentHearts: 3, MaxHearts: 3}

	if applied := instance.ApplyDamage(-4); applied != 0 || instance.CurrentHearts != 3 {
		t.Fatalf("negative damage must be a no-op, applied=%d hearts=%d", applied, instance.CurrentHearts)
	}
	if applied := instance.ApplyDamage(2); applied != 2 || instance.CurrentHearts != 1 {
		t.Fatalf("expected 2 applied with 1 heart left, applied=%d hearts=%d", applied, instance.CurrentHearts)
	}
	if applied := instance.ApplyDamage(10); applied != 1 || instance.CurrentHearts != 0 {
		t.Fatalf("expected clamp at 0 with 1 applied, applied=%d hearts=%d", applied, instance.CurrentHearts)
	}
	if !instance.Defeated() {
		t.Fatal("expected defeated at 0 hearts")
	}
}
