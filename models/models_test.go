package models

import "testing"

func TestCanTransition(t *testing.T) {
	// Main line, in order
	mainLine := []BatchStatus{
		StatusCreated,
		StatusInTransit,
		StatusAtWarehouse,
		StatusDeliveredToRetailer,
		StatusAccepted,
	}
	for i := 0; i < len(mainLine)-1; i++ {
		if !CanTransition(mainLine[i], mainLine[i+1]) {
			t.Errorf("%s -> %s should be allowed", mainLine[i], mainLine[i+1])
		}
	}

	// Skipping stages
	if CanTransition(StatusCreated, StatusAccepted) {
		t.Error("Created -> Accepted should not skip the delivery stages")
	}
	if CanTransition(StatusCreated, StatusAtWarehouse) {
		t.Error("Created -> At Warehouse should not skip In Transit")
	}

	// Going backwards
	if CanTransition(StatusAtWarehouse, StatusInTransit) {
		t.Error("At Warehouse -> In Transit should not go backwards")
	}

	// Accepted is terminal
	for _, to := range []BatchStatus{StatusCreated, StatusInTransit, StatusDelayed} {
		if CanTransition(StatusAccepted, to) {
			t.Errorf("Accepted -> %s should be rejected, Accepted is terminal", to)
		}
	}

	// Delayed is reachable from every non-terminal stage
	for _, from := range mainLine[:len(mainLine)-1] {
		if !CanTransition(from, StatusDelayed) {
			t.Errorf("%s -> Delayed should be allowed", from)
		}
	}

	// Delayed recovers to any main-line stage
	for _, to := range mainLine[1:] {
		if !CanTransition(StatusDelayed, to) {
			t.Errorf("Delayed -> %s should be allowed", to)
		}
	}

	// Self transition is an idempotent no-op
	for _, st := range mainLine {
		if !CanTransition(st, st) {
			t.Errorf("%s -> %s should be a no-op success", st, st)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, st := range []BatchStatus{StatusCreated, StatusInTransit, StatusAtWarehouse, StatusDeliveredToRetailer, StatusAccepted, StatusDelayed} {
		if !ValidStatus(st) {
			t.Errorf("%s should be a valid status", st)
		}
	}
	if ValidStatus("Shipped") {
		t.Error("unknown status should be invalid")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer} {
		if !ValidRole(r) {
			t.Errorf("%s should be a valid role", r)
		}
	}
	if ValidRole("admin") {
		t.Error("admin is not a persona")
	}
}

func TestHomeRoute(t *testing.T) {
	cases := map[Role]string{
		RoleFarmer:      "/farmer/dashboard",
		RoleDistributor: "/distributor/dashboard",
		RoleRetailer:    "/retailer/dashboard",
		RoleConsumer:    "/consumer/products",
	}
	for role, want := range cases {
		if got := role.HomeRoute(); got != want {
			t.Errorf("HomeRoute(%s) = %s, want %s", role, got, want)
		}
	}
}

func TestFinalPrice(t *testing.T) {
	b := &Batch{}
	if b.FinalPrice() != nil {
		t.Error("unpriced batch should have no final price")
	}

	price := 100.0
	b.Price = &price
	if got := b.FinalPrice(); got == nil || *got != 100.0 {
		t.Errorf("final price without discount = %v, want 100", got)
	}

	b.DiscountPercent = 25
	if got := b.FinalPrice(); got == nil || *got != 75.0 {
		t.Errorf("final price with 25%% discount = %v, want 75", got)
	}
}
