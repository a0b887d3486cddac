package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/business-units/internal/core/domain"
	"github.com/99minutos/business-units/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubBusinessUnitRepo struct {
	units     []domain.BusinessUnit
	nextID    int64
	createErr error
	listErr   error
	existsErr error
}

func (r *stubBusinessUnitRepo) Create(_ context.Context, u *domain.BusinessUnit) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	u.ID = r.nextID
	r.units = append(r.units, *u)
	return nil
}

func (r *stubBusinessUnitRepo) List(_ context.Context) ([]domain.BusinessUnit, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.units, nil
}

func (r *stubBusinessUnitRepo) Exists(_ context.Context, id int64) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	for _, u := range r.units {
		if u.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func ptr(v int64) *int64 { return &v }

func TestBusinessUnitService_Create_Root(t *testing.T) {
	repo := &stubBusinessUnitRepo{}
	svc := NewBusinessUnitService(repo, zerolog.Nop())

	unit, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "  Acme Group ", Type: "group"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if unit.ID != 1 || unit.Name != "Acme Group" || unit.Type != domain.BusinessUnitGroup || unit.ParentID != nil {
		t.Fatalf("unexpected unit: %+v", unit)
	}
}

func TestBusinessUnitService_Create_WithParent(t *testing.T) {
	repo := &stubBusinessUnitRepo{}
	svc := NewBusinessUnitService(repo, zerolog.Nop())

	group, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme", Type: "group"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	company, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme MX", Type: "company", ParentID: ptr(group.ID)})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if company.ParentID == nil || *company.ParentID != group.ID {
		t.Fatalf("unexpected parent: %+v", company.ParentID)
	}
}

func TestBusinessUnitService_Create_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input ports.CreateBusinessUnitInput
		field string
	}{
		{"missing name", ports.CreateBusinessUnitInput{Type: "group"}, "name"},
		{"blank name", ports.CreateBusinessUnitInput{Name: "  ", Type: "group"}, "name"},
		{"missing type", ports.CreateBusinessUnitInput{Name: "Acme"}, "type"},
		{"unknown type", ports.CreateBusinessUnitInput{Name: "Acme", Type: "division"}, "type"},
		{"zero parent", ports.CreateBusinessUnitInput{Name: "Acme", Type: "branch", ParentID: ptr(0)}, "parent_id"},
		{"negative parent", ports.CreateBusinessUnitInput{Name: "Acme", Type: "branch", ParentID: ptr(-4)}, "parent_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubBusinessUnitRepo{}
			svc := NewBusinessUnitService(repo, zerolog.Nop())

			_, err := svc.Create(context.Background(), tc.input)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if len(repo.units) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

// A unit cannot name itself as parent: its id does not exist until the
// insert, so the next id to be assigned is rejected like any unknown parent.
func TestBusinessUnitService_Create_SelfReferenceRejected(t *testing.T) {
	repo := &stubBusinessUnitRepo{}
	svc := NewBusinessUnitService(repo, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme", Type: "group"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	nextID := repo.nextID + 1
	_, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Loop", Type: "company", ParentID: ptr(nextID)})
	if err != domain.ErrParentNotFound {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if len(repo.units) != 1 {
		t.Fatalf("self-referencing unit must not be stored")
	}
}

func TestBusinessUnitService_Create_StoreValidationPassesThrough(t *testing.T) {
	repo := &stubBusinessUnitRepo{createErr: domain.ErrParentNotFound}
	svc := NewBusinessUnitService(repo, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme", Type: "group"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBusinessUnitService_Create_InternalErrors(t *testing.T) {
	repo := &stubBusinessUnitRepo{createErr: errors.New("connection refused")}
	svc := NewBusinessUnitService(repo, zerolog.Nop())
	if _, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme", Type: "group"}); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal on insert failure, got %v", err)
	}

	repo = &stubBusinessUnitRepo{existsErr: errors.New("timeout")}
	svc = NewBusinessUnitService(repo, zerolog.Nop())
	if _, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: "Acme", Type: "branch", ParentID: ptr(1)}); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal on parent check failure, got %v", err)
	}
}

func TestBusinessUnitService_List(t *testing.T) {
	repo := &stubBusinessUnitRepo{}
	svc := NewBusinessUnitService(repo, zerolog.Nop())

	units, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if units == nil || len(units) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", units)
	}

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Create(context.Background(), ports.CreateBusinessUnitInput{Name: name, Type: "company"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	units, err = svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	for i, u := range units {
		if u.ID != int64(i+1) {
			t.Fatalf("expected ascending ids, got %+v", units)
		}
	}

	repo.listErr = errors.New("boom")
	if _, err := svc.List(context.Background()); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}
