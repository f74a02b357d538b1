package config

import "testing"

func TestParseProductListCommaDelimited(t *testing.T) {
	specs, expandedAll, err := ParseProductList("chlor_a,Kd_490;0.01,nLw_443/nLw_555")
	if err != nil {
		t.Fatalf("ParseProductList: %v", err)
	}
	if expandedAll {
		t.Fatal("expandedAll = true, want false")
	}
	if len(specs) != 3 {
		t.Fatalf("len(specs) = %d, want 3", len(specs))
	}
	if specs[0].Name != "chlor_a" {
		t.Errorf("specs[0].Name = %q", specs[0].Name)
	}
	if !specs[1].HasMin || *specs[1].Min != 0.01 {
		t.Errorf("specs[1] min = %+v, want 0.01", specs[1])
	}
	if specs[2].Denom != "nLw_555" {
		t.Errorf("specs[2].Denom = %q, want nLw_555", specs[2].Denom)
	}
}

func TestParseProductListMixedDelimitersRejected(t *testing.T) {
	_, _, err := ParseProductList("chlor_a,Kd_490 nLw_443")
	if err == nil {
		t.Fatal("expected an error mixing ',' and ' ' delimiters")
	}
}

func TestParseProductListAllSentinel(t *testing.T) {
	for _, v := range []string{"ALL", "all"} {
		specs, expandedAll, err := ParseProductList(v)
		if err != nil {
			t.Fatalf("ParseProductList(%q): %v", v, err)
		}
		if !expandedAll || specs != nil {
			t.Errorf("ParseProductList(%q) = (%v, %v), want (nil, true)", v, specs, expandedAll)
		}
	}
}

func TestParseProductListEqualsMinSuffix(t *testing.T) {
	specs, _, err := ParseProductList("chlor_a=0.5")
	if err != nil {
		t.Fatalf("ParseProductList: %v", err)
	}
	if !specs[0].HasMin || *specs[0].Min != 0.5 {
		t.Errorf("specs[0] = %+v, want min 0.5", specs[0])
	}
}
