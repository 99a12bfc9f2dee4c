package eval

import (
	"errors"
	"strings"
	"testing"
)

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2+2", "4"},
		{"10/4", "2.5"},
		{"2**10", "1024"},
		{"12/4", "3"},
		{"12 + 3 * (2)", "18"},
		{"(1+2)*(3+4)", "21"},
		{"7 % 3", "1"},
		{"-7 % 3", "2"},      // floored modulo
		{"2 ** -1", "0.5"},   // signed exponent
		{"-2 ** 2", "-4"},    // unary binds looser than **
		{"2 ** 3 ** 2", "512"}, // right associative
		{"--5", "5"},
		{"1.5 * 2", "3"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"  42  ", "42"},
	}
	for _, c := range cases {
		v, err := Eval(c.expr)
		if err != nil {
			t.Errorf("Eval(%q): unexpected error: %v", c.expr, err)
			continue
		}
		if got := v.String(); got != c.want {
			t.Errorf("Eval(%q) = %s, want %s", c.expr, got, c.want)
		}
	}
}

func TestEvalPromotion(t *testing.T) {
	v, err := Eval("3+4")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.IsFloat() {
		t.Fatalf("3+4 should stay integer, got float %v", v.Float())
	}
	v, err = Eval("6/2")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsFloat() {
		t.Fatalf("division must always produce a float")
	}
	if v.String() != "3" {
		t.Fatalf("6/2 = %s, want 3", v.String())
	}
}

func TestEvalUnsafe(t *testing.T) {
	exprs := []string{
		"__import__('os')",
		"os.system",
		"abs(1)",
		"lambda: 1",
		"[1,2]",
		"x + 1",
		"1 < 2",
		"'2'+'2'",
	}
	for _, e := range exprs {
		_, err := Eval(e)
		if !errors.Is(err, ErrUnsafe) {
			t.Errorf("Eval(%q) = %v, want ErrUnsafe", e, err)
		}
	}
}

func TestEvalMalformed(t *testing.T) {
	exprs := []string{
		"",
		"(2+2",
		"2+2)",
		"2 +",
		"* 3",
		"1..2",
		"2 2",
	}
	for _, e := range exprs {
		_, err := Eval(e)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Eval(%q) = %v, want ErrMalformed", e, err)
		}
	}
}

func TestEvalArithmeticFailure(t *testing.T) {
	for _, e := range []string{"1/0", "5 % 0", "10 / (2-2)"} {
		_, err := Eval(e)
		if !errors.Is(err, ErrArithmetic) {
			t.Errorf("Eval(%q) = %v, want ErrArithmetic", e, err)
		}
	}
}

func TestEvalBounds(t *testing.T) {
	long := strings.Repeat("1+", 400) + "1"
	if _, err := Eval(long); !errors.Is(err, ErrMalformed) {
		t.Fatalf("overlong expression: got %v, want ErrMalformed", err)
	}
	deep := strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200)
	if _, err := Eval(deep); !errors.Is(err, ErrMalformed) {
		t.Fatalf("deeply nested expression: got %v, want ErrMalformed", err)
	}
}
