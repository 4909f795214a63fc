package rbac

import (
	"testing"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role     string
		perm     string
		expected bool
	}{
		{RoleClient, PermCreateBounty, true},
		{RoleClient, PermApproveBounty, true},
		{RoleClient, PermClaimBounty, false},
		{RoleDeveloper, PermClaimBounty, true},
		{RoleDeveloper, PermSubmitWork, true},
		{RoleDeveloper, PermApproveBounty, false},
		{RoleAdmin, PermResolveDispute, true},
		{RoleAdmin, PermClaimBounty, false},
		{RoleClient, PermReviewParty, true},
		{RoleDeveloper, PermReviewParty, true},
		{RoleAdmin, PermReviewParty, false},
		{"guest", PermOpenDispute, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.perm, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.expected)
			}
		})
	}
}

func TestCan(t *testing.T) {
	devProfile := uuid.New()
	dev := models.Actor{UserID: uuid.New(), DeveloperProfileID: &devProfile}
	if !Can(dev, PermClaimBounty) {
		t.Error("developer should be able to claim")
	}
	if Can(dev, PermResolveDispute) {
		t.Error("developer must not resolve disputes")
	}

	admin := models.Actor{UserID: uuid.New(), IsAdmin: true}
	if !Can(admin, PermResolveDispute) {
		t.Error("admin should resolve disputes")
	}
	if roles := RolesOf(models.Actor{}); len(roles) != 0 {
		t.Errorf("actor without profiles has roles %v", roles)
	}
}
