package volt

import (
	"math"
	"testing"
)

func TestNewEnergyStoreClampsInitialState(t *testing.T) {
	tests := []struct {
		name         string
		capacity     float64
		charge       float64
		wantCapacity float64
		wantCharge   float64
		wantStatus   ChargeStatus
	}{
		{"full", 100, 100, 100, 100, StatusFull},
		{"partial", 100, 40, 100, 40, StatusPartlyFull},
		{"empty", 100, 0, 100, 0, StatusEmpty},
		{"charge above capacity", 100, 150, 100, 100, StatusFull},
		{"negative charge", 100, -5, 100, 0, StatusEmpty},
		{"negative capacity", -10, 50, 0, 0, StatusEmpty},
		{"zero capacity", 0, 0, 0, 0, StatusEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEnergyStore(SizeSmall, tt.capacity, tt.charge)
			if s.Capacity() != tt.wantCapacity {
				t.Errorf("capacity = %v, want %v", s.Capacity(), tt.wantCapacity)
			}
			if s.Charge() != tt.wantCharge {
				t.Errorf("charge = %v, want %v", s.Charge(), tt.wantCharge)
			}
			if s.Status() != tt.wantStatus {
				t.Errorf("status = %v, want %v", s.Status(), tt.wantStatus)
			}
		})
	}
}

func TestTryDrawStrictBoundary(t *testing.T) {
	// A draw exactly equal to the remaining charge must fail: the
	// comparison is strict less-than, not less-or-equal. Devices rely
	// on this boundary to shut off before the store bottoms out.
	s := NewEnergyStore(SizeSmall, 100, 50)

	if s.TryDraw(50) {
		t.Fatal("TryDraw(50) with charge 50 should fail on the exact boundary")
	}
	if s.Charge() != 50 {
		t.Fatalf("failed draw mutated charge: got %v, want 50", s.Charge())
	}

	if !s.TryDraw(49.999) {
		t.Fatal("TryDraw just below charge should succeed")
	}
	if s.TryDraw(1) {
		t.Fatal("TryDraw above remaining charge should fail")
	}
}

func TestTryDraw(t *testing.T) {
	tests := []struct {
		name       string
		charge     float64
		amount     float64
		wantOK     bool
		wantCharge float64
	}{
		{"normal draw", 50, 10, true, 40},
		{"exact charge fails", 50, 50, false, 50},
		{"over charge fails", 50, 60, false, 50},
		{"zero draw from empty fails", 0, 0, false, 0},
		{"zero draw succeeds with charge", 50, 0, true, 50},
		{"negative amount fails", 50, -10, false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEnergyStore(SizeSmall, 100, tt.charge)
			if got := s.TryDraw(tt.amount); got != tt.wantOK {
				t.Errorf("TryDraw(%v) = %v, want %v", tt.amount, got, tt.wantOK)
			}
			if s.Charge() != tt.wantCharge {
				t.Errorf("charge = %v, want %v", s.Charge(), tt.wantCharge)
			}
		})
	}
}

func TestDrawTakesMin(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 30)

	if got := s.Draw(10); got != 10 {
		t.Errorf("Draw(10) = %v, want 10", got)
	}
	if got := s.Draw(50); got != 20 {
		t.Errorf("Draw(50) with charge 20 = %v, want 20", got)
	}
	if s.Charge() != 0 {
		t.Errorf("charge = %v, want 0", s.Charge())
	}
	if s.Status() != StatusEmpty {
		t.Errorf("status = %v, want empty", s.Status())
	}
	if got := s.Draw(5); got != 0 {
		t.Errorf("Draw from empty = %v, want 0", got)
	}
}

func TestTryAddAllOrNothing(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 90)

	if !s.TryAdd(10) {
		t.Fatal("TryAdd up to exactly full should succeed")
	}
	if s.Status() != StatusFull {
		t.Fatalf("status = %v, want full", s.Status())
	}
	if s.TryAdd(1) {
		t.Fatal("TryAdd past capacity should fail")
	}
	if s.Charge() != 100 {
		t.Fatalf("failed add mutated charge: got %v, want 100", s.Charge())
	}
}

func TestAddClamps(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 90)

	if got := s.Add(30); got != 10 {
		t.Errorf("Add(30) = %v, want 10", got)
	}
	if s.Charge() != 100 {
		t.Errorf("charge = %v, want 100", s.Charge())
	}
	if got := s.Add(5); got != 0 {
		t.Errorf("Add to full store = %v, want 0", got)
	}
}

func TestFillFrom(t *testing.T) {
	tests := []struct {
		name      string
		dstCharge float64
		srcCharge float64
		wantMoved float64
		wantDst   float64
		wantSrc   float64
	}{
		{"source covers deficit", 60, 100, 40, 100, 60},
		{"partial transfer drains source", 60, 25, 25, 85, 0},
		{"destination already full", 100, 50, 0, 100, 50},
		{"empty source", 60, 0, 0, 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewEnergyStore(SizeSmall, 100, tt.dstCharge)
			src := NewEnergyStore(SizeSmall, 100, tt.srcCharge)

			if got := dst.FillFrom(src); got != tt.wantMoved {
				t.Errorf("FillFrom moved %v, want %v", got, tt.wantMoved)
			}
			if dst.Charge() != tt.wantDst {
				t.Errorf("dst charge = %v, want %v", dst.Charge(), tt.wantDst)
			}
			if src.Charge() != tt.wantSrc {
				t.Errorf("src charge = %v, want %v", src.Charge(), tt.wantSrc)
			}
		})
	}
}

func TestFillFromSelfIsNoop(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 60)
	if got := s.FillFrom(s); got != 0 {
		t.Errorf("FillFrom(self) = %v, want 0", got)
	}
	if s.Charge() != 60 {
		t.Errorf("charge = %v, want 60", s.Charge())
	}
}

func TestSetMaxCapacityClampsChargeDown(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 80)

	s.SetMaxCapacity(50)
	if s.Capacity() != 50 {
		t.Errorf("capacity = %v, want 50", s.Capacity())
	}
	if s.Charge() != 50 {
		t.Errorf("charge = %v, want 50", s.Charge())
	}
	if s.Status() != StatusFull {
		t.Errorf("status = %v, want full", s.Status())
	}

	s.SetMaxCapacity(-10)
	if s.Capacity() != 0 || s.Charge() != 0 {
		t.Errorf("negative capacity should clamp to zero, got cap=%v charge=%v", s.Capacity(), s.Charge())
	}
}

func TestSetCurrentChargeClamps(t *testing.T) {
	s := NewEnergyStore(SizeSmall, 100, 50)

	s.SetCurrentCharge(200)
	if s.Charge() != 100 {
		t.Errorf("charge = %v, want 100", s.Charge())
	}
	s.SetCurrentCharge(-5)
	if s.Charge() != 0 {
		t.Errorf("charge = %v, want 0", s.Charge())
	}
}

// TestChargeInvariantUnderOperationSequences drives a store through a
// mixed operation sequence and checks the clamp invariant after every
// step.
func TestChargeInvariantUnderOperationSequences(t *testing.T) {
	s := NewEnergyStore(SizeMedium, 100, 50)

	ops := []func(){
		func() { s.TryDraw(30) },
		func() { s.Add(200) },
		func() { s.Draw(45) },
		func() { s.TryAdd(1000) },
		func() { s.SetMaxCapacity(20) },
		func() { s.Add(5) },
		func() { s.SetCurrentCharge(-3) },
		func() { s.SetMaxCapacity(300) },
		func() { s.Draw(math.MaxFloat64) },
		func() { s.TryDraw(0) },
		func() { s.Add(300) },
	}

	for i, op := range ops {
		op()
		if s.Charge() < 0 || s.Charge() > s.Capacity() {
			t.Fatalf("op %d broke invariant: charge=%v capacity=%v", i, s.Charge(), s.Capacity())
		}
		want := s.computeStatus()
		if s.Status() != want {
			t.Fatalf("op %d left stale status %v, want %v", i, s.Status(), want)
		}
	}
}

func TestIndicatorLevel(t *testing.T) {
	tests := []struct {
		charge   float64
		capacity float64
		want     int
	}{
		{0, 100, 0},
		{0, 0, 0},
		{25, 100, 1},
		{26, 100, 2},
		{50, 100, 2},
		{75, 100, 3},
		{76, 100, 4},
		{100, 100, 4},
	}

	for _, tt := range tests {
		if got := indicatorLevel(tt.charge, tt.capacity); got != tt.want {
			t.Errorf("indicatorLevel(%v, %v) = %d, want %d", tt.charge, tt.capacity, got, tt.want)
		}
	}
}

func TestParseSizeClass(t *testing.T) {
	for _, size := range []SizeClass{SizeSmall, SizeMedium, SizeLarge} {
		got, err := ParseSizeClass(size.String())
		if err != nil {
			t.Fatalf("ParseSizeClass(%q): %v", size.String(), err)
		}
		if got != size {
			t.Errorf("ParseSizeClass(%q) = %v, want %v", size.String(), got, size)
		}
	}

	if _, err := ParseSizeClass("gigantic"); err == nil {
		t.Fatal("ParseSizeClass should reject unknown size classes")
	}
}
