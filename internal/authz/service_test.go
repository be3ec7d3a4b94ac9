package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceAdminWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("coupon_ops", "/admin/coupons/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"coupon_ops"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(1, "/api/v1/admin/coupons/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/coupons/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("coupon_ops", "/admin/coupons", "GET"); err != nil {
		t.Fatalf("grant coupon_ops policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("campaign_ops", "/admin/campaigns", "GET"); err != nil {
		t.Fatalf("grant campaign_ops policy failed: %v", err)
	}

	if err := svc.SetAdminRoles(2, []string{"coupon_ops"}); err != nil {
		t.Fatalf("set first roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"campaign_ops"}); err != nil {
		t.Fatalf("override roles failed: %v", err)
	}

	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get admin roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:campaign_ops" {
		t.Fatalf("roles should be overridden, got %v", roles)
	}

	allow, err := svc.EnforceAdmin(2, "/admin/coupons", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("old role policy should no longer apply")
	}

	allow, err = svc.EnforceAdmin(2, "/admin/campaigns", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("new role policy should apply")
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be idempotent: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := map[string]bool{
		"role:readonly_auditor": false,
		"role:coupon_manager":   false,
		"role:campaign_manager": false,
	}
	for _, role := range roles {
		if _, ok := want[role]; ok {
			want[role] = true
		}
	}
	for role, seen := range want {
		if !seen {
			t.Fatalf("builtin role %s missing, got %v", role, roles)
		}
	}

	if err := svc.SetAdminRoles(3, []string{"coupon_manager"}); err != nil {
		t.Fatalf("assign builtin role failed: %v", err)
	}
	allow, err := svc.EnforceAdmin(3, "/admin/coupons", "POST")
	if err != nil {
		t.Fatalf("enforce coupon_manager failed: %v", err)
	}
	if !allow {
		t.Fatalf("coupon_manager should manage coupons")
	}
	allow, err = svc.EnforceAdmin(3, "/admin/campaigns", "GET")
	if err != nil {
		t.Fatalf("enforce inherited read failed: %v", err)
	}
	if !allow {
		t.Fatalf("coupon_manager should inherit readonly access")
	}
}
