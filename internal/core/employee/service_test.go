package employee

import (
	"context"
	"errors"
	"testing"
)

type fakeEmployeeRepo struct {
	employees []Employee
	err       error
	calls     int
}

func (r *fakeEmployeeRepo) List(_ context.Context) ([]Employee, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.employees, nil
}

type recordingTx struct {
	readOnly int
}

func (r *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	r.readOnly++
	return fn(ctx)
}

func TestService_ListEmployees_PreservesOrder(t *testing.T) {
	t.Parallel()

	repo := &fakeEmployeeRepo{employees: []Employee{
		{ID: "2", FullName: "Grace Hopper"},
		{ID: "1", FullName: "Ada Lovelace"},
	}}
	tx := &recordingTx{}
	svc := NewService(repo, tx)

	got, err := svc.ListEmployees(context.Background())
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}

	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected repository order to be preserved, got %+v", got)
	}
	if tx.readOnly != 1 {
		t.Fatalf("expected one read-only transaction, got %d", tx.readOnly)
	}
}

func TestService_ListEmployees_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeEmployeeRepo{}, nil)

	got, err := svc.ListEmployees(context.Background())
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestService_ListEmployees_RepositoryError(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("boom")
	svc := NewService(&fakeEmployeeRepo{err: repoErr}, nil)

	if _, err := svc.ListEmployees(context.Background()); !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestService_ListEmployees_RejectsBlankID(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeEmployeeRepo{employees: []Employee{{ID: "1"}, {ID: "  "}}}, nil)

	if _, err := svc.ListEmployees(context.Background()); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestService_ListEmployees_NilRepository(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil)

	if _, err := svc.ListEmployees(context.Background()); !errors.Is(err, ErrRepositoryUnavailable) {
		t.Fatalf("expected ErrRepositoryUnavailable, got %v", err)
	}
}

func TestDuplicateIDs(t *testing.T) {
	t.Parallel()

	got := DuplicateIDs([]Employee{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}, {ID: "b"}, {ID: "a"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected duplicates: %v", got)
	}

	if got := DuplicateIDs([]Employee{{ID: "a"}, {ID: "b"}}); len(got) != 0 {
		t.Fatalf("expected no duplicates, got %v", got)
	}
}
