package command

import (
	"errors"
	"reflect"
	"testing"
)

type speed float64

func TestRegisterFuncDerivesParams(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		want []ParamType
	}{
		{"none", func() {}, []ParamType{}},
		{"float", func(float64) {}, []ParamType{Float64}},
		{"mixed", func(string, int, bool) {}, []ParamType{String, Int, Bool}},
		{"unsigned", func(uint8, uint64) {}, []ParamType{Uint8, Uint64}},
		{"named", func(speed) {}, []ParamType{Unsupported("command.speed")}},
		{"slice", func([]int) {}, []ParamType{Unsupported("[]int")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.RegisterFunc(tt.name, "", tt.fn); err != nil {
				t.Fatal(err)
			}
			d, ok := r.Lookup(tt.name)
			if !ok {
				t.Fatal("lookup failed")
			}
			if !reflect.DeepEqual(d.Params, tt.want) {
				t.Errorf("params: got %v, want %v", d.Params, tt.want)
			}
		})
	}
}

func TestRegisterRejectsNonFunc(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterFunc("x", "", 42); err == nil {
		t.Error("expected error for non-func")
	}
	if err := r.RegisterFunc("v", "", func(...int) {}); err == nil {
		t.Error("expected error for variadic func")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	r.MustRegisterFunc("help", "", func() {})
	if err := r.RegisterFunc("help", "", func() {}); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestSealedRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegisterFunc("a", "", func() {})
	r.Seal()

	err := r.RegisterFunc("b", "", func() {})
	if !errors.Is(err, ErrSealed) {
		t.Errorf("expected ErrSealed, got %v", err)
	}
	if _, ok := r.Lookup("a"); !ok {
		t.Error("sealed registry lost existing command")
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"spawn", "god", "setSpeed"} {
		r.MustRegisterFunc(n, "", func() {})
	}
	got := r.Names()
	want := []string{"god", "setSpeed", "spawn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSignature(t *testing.T) {
	d := Descriptor{Name: "spawn", Params: []ParamType{String, Int}}
	if got := d.Signature(); got != "spawn <string> <int>" {
		t.Errorf("got %q", got)
	}
}

func TestParamParse(t *testing.T) {
	tests := []struct {
		p       ParamType
		token   string
		want    any
		wantErr error
	}{
		{Bool, "true", true, nil},
		{Bool, "1", true, nil},
		{Bool, "yes", nil, ErrParse},
		{Int, "-42", -42, nil},
		{Int16, "40000", nil, ErrParse},
		{Uint, "-1", nil, ErrParse},
		{Uint32, "7", uint32(7), nil},
		{Float64, "2.5", 2.5, nil},
		{Float32, "nope", nil, ErrParse},
		{String, "verbatim", "verbatim", nil},
		{Unsupported("Vec3"), "1", nil, ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.p.String()+"/"+tt.token, func(t *testing.T) {
			got, err := tt.p.Parse(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
