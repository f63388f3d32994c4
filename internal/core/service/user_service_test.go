package service

import (
	"context"
	"errors"
	"testing"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

func TestUserService_Create(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, discardLogger)

	u, err := svc.Create(context.Background(), ports.UserInput{
		Name:  " Carla ",
		Email: "Carla@CRM.test",
		Phone: "+55 (11) 4000-1234",
		Role:  "manager",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected an assigned id")
	}
	if u.Name != "Carla" || u.Email != "carla@crm.test" || u.Phone != "551140001234" {
		t.Errorf("unexpected normalized user %+v", u)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(domain.User{Name: "Carla", Email: "carla@crm.test", Role: "manager"})
	svc := NewUserService(repo, discardLogger)

	_, err := svc.Create(context.Background(), ports.UserInput{Name: "Other", Email: "CARLA@crm.test", Role: "sales"})

	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != domain.FieldEmail {
		t.Fatalf("expected DuplicateField(email), got %v", err)
	}
}

func TestUserService_Create_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		input ports.UserInput
		code  domain.ValidationCode
	}{
		{name: "name", input: ports.UserInput{Email: "a@b.c", Role: "r"}, code: domain.CodeBlankName},
		{name: "email", input: ports.UserInput{Name: "A", Role: "r"}, code: domain.CodeBlankEmail},
		{name: "role", input: ports.UserInput{Name: "A", Email: "a@b.c"}, code: domain.CodeBlankRole},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUserService(newStubUserRepo(), discardLogger)
			_, err := svc.Create(context.Background(), tc.input)

			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Code != tc.code {
				t.Fatalf("expected %q, got %v", tc.code, err)
			}
		})
	}
}

func TestUserService_Update_KeepOwnEmail(t *testing.T) {
	repo := newStubUserRepo()
	existing := repo.seed(domain.User{Name: "Carla", Email: "carla@crm.test", Role: "manager"})
	svc := NewUserService(repo, discardLogger)

	u, err := svc.Update(context.Background(), existing.ID, ports.UserInput{Name: "Carla M.", Email: "carla@crm.test", Role: "director"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != "director" || u.Name != "Carla M." {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), discardLogger)

	_, err := svc.Update(context.Background(), 9, ports.UserInput{Name: "A", Email: "a@b.c", Role: "r"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
