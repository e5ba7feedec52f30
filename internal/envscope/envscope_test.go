package envscope

import (
	"os"
	"testing"
)

func TestApply(t *testing.T) {
	t.Run("OverrideAndRestore", func(t *testing.T) {
		t.Setenv("ENVSCOPE_TEST_A", "original")

		value := "override"
		restore := Apply(map[string]*string{"ENVSCOPE_TEST_A": &value})
		if got := os.Getenv("ENVSCOPE_TEST_A"); got != "override" {
			t.Errorf("During scope: %q, want override", got)
		}

		restore()
		if got := os.Getenv("ENVSCOPE_TEST_A"); got != "original" {
			t.Errorf("After restore: %q, want original", got)
		}
	})

	t.Run("UnsetVariableStaysUnset", func(t *testing.T) {
		os.Unsetenv("ENVSCOPE_TEST_B")

		value := "temporary"
		restore := Apply(map[string]*string{"ENVSCOPE_TEST_B": &value})
		if got := os.Getenv("ENVSCOPE_TEST_B"); got != "temporary" {
			t.Errorf("During scope: %q, want temporary", got)
		}

		restore()
		if _, ok := os.LookupEnv("ENVSCOPE_TEST_B"); ok {
			t.Error("Variable should be unset after restore")
		}
	})

	t.Run("NilUnsetsForScope", func(t *testing.T) {
		t.Setenv("ENVSCOPE_TEST_C", "present")

		restore := Apply(map[string]*string{"ENVSCOPE_TEST_C": nil})
		if _, ok := os.LookupEnv("ENVSCOPE_TEST_C"); ok {
			t.Error("Variable should be unset inside the scope")
		}

		restore()
		if got := os.Getenv("ENVSCOPE_TEST_C"); got != "present" {
			t.Errorf("After restore: %q, want present", got)
		}
	})

	t.Run("RestoreRunsOnPanicViaDefer", func(t *testing.T) {
		t.Setenv("ENVSCOPE_TEST_D", "before")

		func() {
			defer func() { _ = recover() }()
			defer Set("ENVSCOPE_TEST_D", "during")()
			panic("boom")
		}()

		if got := os.Getenv("ENVSCOPE_TEST_D"); got != "before" {
			t.Errorf("After panic: %q, want before", got)
		}
	})
}
