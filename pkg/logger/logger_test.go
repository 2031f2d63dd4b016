package logger

import (
	"context"
	"testing"
)

func TestInitAndLevels(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	l := Get()
	if l == nil {
		t.Fatal("logger is nil after Init")
	}

	// Level parsing accepts all documented spellings.
	for _, level := range []string{"debug", "info", "", "warn", "warning", "error", "WARN"} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q): %v", level, err)
		}
	}
	if err := SetLevelString("noise"); err == nil {
		t.Error("SetLevelString accepted an unknown level")
	}

	// Logging must not panic with any field constructor.
	ctx := context.Background()
	l.Info(ctx, "fields",
		String("s", "v"), Int("i", 1), Int64("i64", 2), Float64("f", 3.5),
		Bool("b", true), Any("a", struct{}{}), Error(nil),
	)
	l.Named("sub").Debug(ctx, "named logger")
}

func TestGetWithoutInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Fatal("Get did not panic without Init")
		}
	}()
	Get()
}
