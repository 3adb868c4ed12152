package validator

import (
	"strings"
	"testing"

	"clubmanager/pkg/logger"
	"clubmanager/pkg/model"
)

func newTestValidator() *ClassValidator {
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	return NewClassValidator(log)
}

func validCreateRequest() *model.CreateClassRequest {
	return &model.CreateClassRequest{
		Name:        "Pilates",
		StartDate:   "2025-02-01",
		EndDate:     "2025-02-20",
		StartTime:   "14:00",
		DurationMin: 60,
		Capacity:    10,
	}
}

func TestValidateCreate_Valid(t *testing.T) {
	v := newTestValidator()
	if err := v.ValidateCreate(validCreateRequest()); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}
}

func TestValidateCreate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.CreateClassRequest)
		wantPart string
	}{
		{
			name:     "missing name",
			mutate:   func(r *model.CreateClassRequest) { r.Name = "" },
			wantPart: "Name",
		},
		{
			name:     "name too short",
			mutate:   func(r *model.CreateClassRequest) { r.Name = "A" },
			wantPart: "at least 2",
		},
		{
			name:     "bad start date format",
			mutate:   func(r *model.CreateClassRequest) { r.StartDate = "01-02-2025" },
			wantPart: "YYYY-MM-DD",
		},
		{
			name:     "bad start time format",
			mutate:   func(r *model.CreateClassRequest) { r.StartTime = "2pm" },
			wantPart: "HH:MM",
		},
		{
			name:     "duration below minimum",
			mutate:   func(r *model.CreateClassRequest) { r.DurationMin = 5 },
			wantPart: "at least 10",
		},
		{
			name:     "zero capacity",
			mutate:   func(r *model.CreateClassRequest) { r.Capacity = 0 },
			wantPart: "Capacity",
		},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)

			err := v.ValidateCreate(req)
			if err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantPart) {
				t.Errorf("expected error to mention %q, got: %v", tt.wantPart, err)
			}
		})
	}
}
