package strategy

import (
	"testing"

	"TrendSentinel/internal/model"
)

func stage2() *model.IndicatorSet {
	return &model.IndicatorSet{
		CurrentClose: 150,
		SMA50:        140,
		SMA150:       130,
		SMA200:       120,
		SMA200Prior:  118,
		Low52w:       100,
		High52w:      160,
		RSRating:     75,
	}
}

func TestEvaluate_Stage2Uptrend(t *testing.T) {
	check := Evaluate(stage2())
	if !check.Passed {
		t.Fatalf("expected pass, failed: %v", check.Failed())
	}
	if len(check.Conditions) != 8 {
		t.Fatalf("expected 8 conditions, got %d", len(check.Conditions))
	}
}

func TestEvaluate_WeakRSOnly(t *testing.T) {
	ind := stage2()
	ind.RSRating = 65
	check := Evaluate(ind)
	if check.Passed {
		t.Fatal("expected fail with RS 65")
	}
	failed := check.Failed()
	if len(failed) != 1 || failed[0] != "rs>=70" {
		t.Errorf("expected only rs>=70 to fail, got %v", failed)
	}
}

func TestEvaluate_EachConditionIsRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ind *model.IndicatorSet)
		failed string
	}{
		{"sma200 flat", func(ind *model.IndicatorSet) { ind.SMA200Prior = 120 }, "sma200 rising"},
		{"sma200 falling", func(ind *model.IndicatorSet) { ind.SMA200Prior = 125 }, "sma200 rising"},
		{"price under sma50", func(ind *model.IndicatorSet) { ind.SMA50 = 150; ind.High52w = 160 }, "price>sma50"},
		{"too close to low", func(ind *model.IndicatorSet) { ind.Low52w = 116 }, "price>=1.3*low52w"},
		{"too far from high", func(ind *model.IndicatorSet) { ind.High52w = 201 }, "price>=0.75*high52w"},
		{"rs below 70", func(ind *model.IndicatorSet) { ind.RSRating = 69.99 }, "rs>=70"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := stage2()
			tt.mutate(ind)
			check := Evaluate(ind)
			if check.Passed {
				t.Fatal("expected fail")
			}
			found := false
			for _, name := range check.Failed() {
				if name == tt.failed {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %q among failures, got %v", tt.failed, check.Failed())
			}
		})
	}
}

func TestEvaluate_MAOrdering(t *testing.T) {
	// sma150 below sma200 breaks conditions 1, 2 and 4 together
	ind := stage2()
	ind.SMA150 = 119
	check := Evaluate(ind)
	if check.Passed {
		t.Fatal("expected fail")
	}
	want := map[string]bool{"price>sma150>sma200": true, "sma150>sma200": true, "sma50>sma150>sma200": true}
	for _, name := range check.Failed() {
		if !want[name] {
			t.Errorf("unexpected failure %q", name)
		}
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("missing failures: %v", want)
	}

	// sma50 under sma150 only breaks condition 4
	ind = stage2()
	ind.SMA50 = 129
	check = Evaluate(ind)
	if failed := check.Failed(); len(failed) != 1 || failed[0] != "sma50>sma150>sma200" {
		t.Errorf("expected only MA stack failure, got %v", failed)
	}
}

func TestEvaluate_BoundariesInclusive(t *testing.T) {
	ind := stage2()
	ind.High52w = 200
	ind.RSRating = 70
	if !Passes(ind) {
		t.Errorf("expected boundaries to pass, failed: %v", Evaluate(ind).Failed())
	}
}
