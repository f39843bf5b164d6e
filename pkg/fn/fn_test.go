package fn

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(5), func(v int) string { return strconv.Itoa(v) })
	if v, _ := r.Unwrap(); v != "5" {
		t.Fatal("MapResult failed")
	}
	e := MapResult(Err[int](errors.New("x")), func(v int) string { return strconv.Itoa(v) })
	if e.IsOk() {
		t.Fatal("MapResult on Err should stay Err")
	}
}

func TestFromPair(t *testing.T) {
	r := FromPair(strconv.Atoi("42"))
	if v, _ := r.Unwrap(); v != 42 {
		t.Fatal("FromPair failed")
	}
	e := FromPair(strconv.Atoi("nope"))
	if e.IsOk() {
		t.Fatal("FromPair should fail")
	}
}

// --- Stage composition ---

func TestThen(t *testing.T) {
	parse := Stage[string, int](func(_ context.Context, s string) Result[int] {
		return FromPair(strconv.Atoi(s))
	})
	double := Stage[int, int](func(_ context.Context, n int) Result[int] {
		return Ok(n * 2)
	})

	r := Then(parse, double)(context.Background(), "21")
	if v, _ := r.Unwrap(); v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestThenShortCircuits(t *testing.T) {
	var secondRan bool
	first := Stage[int, int](func(_ context.Context, _ int) Result[int] {
		return Err[int](errors.New("boom"))
	})
	second := Stage[int, int](func(_ context.Context, n int) Result[int] {
		secondRan = true
		return Ok(n)
	})

	r := Then(first, second)(context.Background(), 1)
	if r.IsOk() || secondRan {
		t.Fatal("error in first stage must skip second")
	}
}

func TestPipeline(t *testing.T) {
	upper := Stage[string, string](func(_ context.Context, s string) Result[string] {
		return Ok(strings.ToUpper(s))
	})
	exclaim := Stage[string, string](func(_ context.Context, s string) Result[string] {
		return Ok(s + "!")
	})

	r := Pipeline(upper, exclaim)(context.Background(), "go")
	if v, _ := r.Unwrap(); v != "GO!" {
		t.Fatalf("got %q", v)
	}
}

// --- Slices ---

func TestMap(t *testing.T) {
	out := Map([]int{1, 2, 3}, func(v int) int { return v * v })
	if len(out) != 3 || out[2] != 9 {
		t.Fatalf("got %v", out)
	}
}

func TestFilter(t *testing.T) {
	out := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(out) != 2 || out[0] != 2 {
		t.Fatalf("got %v", out)
	}
}

func TestFilterMap(t *testing.T) {
	out := FilterMap([]string{"1", "x", "3"}, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
	if len(out) != 2 || out[1] != 3 {
		t.Fatalf("got %v", out)
	}
}

func TestUniqueBy(t *testing.T) {
	out := UniqueBy([]string{"aa", "ab", "ba", "ac"}, func(s string) byte { return s[0] })
	if len(out) != 2 || out[0] != "aa" || out[1] != "ba" {
		t.Fatalf("got %v", out)
	}
}

func TestFlatMap(t *testing.T) {
	out := FlatMap([]int{1, 2}, func(v int) []int { return []int{v, v} })
	if len(out) != 4 || out[3] != 2 {
		t.Fatalf("got %v", out)
	}
}
