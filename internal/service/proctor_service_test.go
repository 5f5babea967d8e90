package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/service/servicetest"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		threshold int
		want      model.ProctorAction
	}{
		{"first violation", 1, 5, model.ProctorActionWarn},
		{"below threshold", 4, 5, model.ProctorActionWarn},
		{"at threshold", 5, 5, model.ProctorActionAutoSubmit},
		{"past threshold", 9, 5, model.ProctorActionAutoSubmit},
		{"threshold of one", 1, 1, model.ProctorActionAutoSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Decide(tt.count, tt.threshold)
			if got.Action != tt.want {
				t.Errorf("Decide(%d, %d).Action = %s, want %s", tt.count, tt.threshold, got.Action, tt.want)
			}
			if got.Violations != tt.count {
				t.Errorf("Decide(%d, %d).Violations = %d", tt.count, tt.threshold, got.Violations)
			}
		})
	}
}

func TestNewProctorService_DefaultThreshold(t *testing.T) {
	p := service.NewProctorService(servicetest.NewStore(), 0, zerolog.Nop())
	if p.Threshold() != config.DefaultViolationThreshold {
		t.Errorf("Threshold() = %d, want %d", p.Threshold(), config.DefaultViolationThreshold)
	}
}

func TestProctorService_CountsPerAttempt(t *testing.T) {
	store := servicetest.NewStore()
	p := service.NewProctorService(store, 2, zerolog.Nop())
	ctx := context.Background()
	examA, examB := uuid.New(), uuid.New()

	if _, err := p.RecordViolation(ctx, examA, 1, "tab_switch", nil); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	// Another exam and another student do not share the count.
	if _, err := p.RecordViolation(ctx, examB, 1, "tab_switch", nil); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if _, err := p.RecordViolation(ctx, examA, 2, "tab_switch", nil); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	details := "left fullscreen"
	d, err := p.RecordViolation(ctx, examA, 1, "fullscreen_exit", &details)
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if d.Action != model.ProctorActionAutoSubmit || d.Violations != 2 {
		t.Errorf("decision = %+v, want AUTO_SUBMIT/2", d)
	}
}
