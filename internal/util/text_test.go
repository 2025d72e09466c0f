package util

import "testing"

func TestTitleCase(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "thingamajigs", want: "Thingamajigs"},
		{input: "GIZMOS", want: "Gizmos"},
		{input: "", want: ""},
		{input: "foo_bars", want: "Foo_Bars"},
		{input: "x-rays", want: "X-Rays"},
		{input: "3d printers", want: "3D Printers"},
		{input: "jalapeños", want: "Jalapeños"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			if got := TitleCase(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	got := SanitizeFileName("<abc@example.com>")
	if got != "_abc@example.com_" {
		t.Fatalf("got %q", got)
	}
}

func TestDeref(t *testing.T) {
	if Deref[int](nil) != 0 {
		t.Fatal("nil deref should be zero")
	}
	if Deref(StringPtr("x")) != "x" {
		t.Fatal("deref mismatch")
	}
}
