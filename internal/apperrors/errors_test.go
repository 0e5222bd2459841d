package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPublicMessage_UsesSafeMessage(t *testing.T) {
	sentinel := errors.New("open /srv/menu-data/menu.data: permission denied")
	err := New(KindStartup, "menu file unreadable", sentinel)
	if got := PublicMessage(err); got != "menu file unreadable" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "menu file unreadable")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped cause to be retained for internal matching")
	}
}

func TestImageLoad_HidesDecoderText(t *testing.T) {
	cause := errors.New("image: unknown format")
	err := fmt.Errorf("load photo.jpg: %w", ImageLoad(ReasonUnsupported, cause))

	kind, ok := KindOf(err)
	if !ok || kind != KindImageLoad {
		t.Fatalf("KindOf() = (%q, %v), want (%q, true)", kind, ok, KindImageLoad)
	}
	reason, ok := ReasonOf(err)
	if !ok || reason != ReasonUnsupported {
		t.Fatalf("ReasonOf() = (%q, %v), want (%q, true)", reason, ok, ReasonUnsupported)
	}
	if got := PublicMessage(err); got != "Image unavailable." {
		t.Fatalf("PublicMessage() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "startup", err: Startup("", nil), want: true},
		{name: "wrapped startup", err: fmt.Errorf("boot: %w", Startup("no categories", nil)), want: true},
		{name: "config", err: Config(errors.New("bad json")), want: false},
		{name: "menu row", err: MenuParse("", nil), want: false},
		{name: "plain", err: errors.New("plain"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPublicMessage_NonAppError(t *testing.T) {
	err := errors.New("plain")
	if got := PublicMessage(err); got != "plain" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "plain")
	}
}
