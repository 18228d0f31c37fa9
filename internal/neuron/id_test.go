package neuron

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != id {
		t.Errorf("Parse(String()) = %v, want %v", parsed, id)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-an-id"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestFromBytes(t *testing.T) {
	id := New()
	got, err := FromBytes(id[:])
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != id {
		t.Errorf("FromBytes = %v, want %v", got, id)
	}

	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short slice")
	}
}

func TestJSONText(t *testing.T) {
	a := Activation{ID: MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), Level: 0.5}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","level":0.5}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Activation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("Unmarshal = %+v, want %+v", back, a)
	}
}

func TestCompare(t *testing.T) {
	lo := ID{0x01}
	hi := ID{0x02}
	if lo.Compare(hi) >= 0 || hi.Compare(lo) <= 0 || lo.Compare(lo) != 0 {
		t.Error("Compare ordering is wrong")
	}
}

func TestDedupe(t *testing.T) {
	a, b := New(), New()
	got := Dedupe([]Activation{{a, 0.2}, {b, 0.5}, {a, 0.9}, {b, 0.1}})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != a || got[0].Level != 0.9 {
		t.Errorf("got[0] = %+v, want %v at 0.9", got[0], a)
	}
	if got[1].ID != b || got[1].Level != 0.5 {
		t.Errorf("got[1] = %+v, want %v at 0.5", got[1], b)
	}
}

func TestDedupe_NonFiniteLevels(t *testing.T) {
	a, b := New(), New()
	tests := []struct {
		name string
		set  []Activation
		want []Activation
	}{
		{"NaN before finite", []Activation{{a, math.NaN()}, {b, 0.4}, {a, 0.9}}, []Activation{{a, 0.9}, {b, 0.4}}},
		{"NaN after finite", []Activation{{a, 0.9}, {a, math.NaN()}}, []Activation{{a, 0.9}}},
		{"Inf alone", []Activation{{a, math.Inf(1)}}, []Activation{{a, 0}}},
		{"negative Inf", []Activation{{a, math.Inf(-1)}, {b, 0.2}}, []Activation{{a, 0}, {b, 0.2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.set)
			if len(got) != len(tt.want) {
				t.Fatalf("Dedupe = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
