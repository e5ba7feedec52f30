// Package envscope applies temporary process-environment overrides. The
// CLI uses it for device visibility and runtime verbosity: variables are
// overridden for the duration of a command and restored afterwards on every
// exit path.
package envscope

import "os"

// Apply sets each variable in vars: a non-nil value sets it, a nil value
// unsets it. The returned restore function reinstates the prior state,
// unsetting variables that did not exist before. Callers should defer it
// immediately so restoration also happens on failure.
func Apply(vars map[string]*string) (restore func()) {
	type prior struct {
		value string
		set   bool
	}
	saved := make(map[string]prior, len(vars))
	for key := range vars {
		value, ok := os.LookupEnv(key)
		saved[key] = prior{value: value, set: ok}
	}

	for key, value := range vars {
		if value == nil {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, *value)
		}
	}

	return func() {
		for key, p := range saved {
			if p.set {
				os.Setenv(key, p.value)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

// Set is a convenience for overriding a single variable.
func Set(key, value string) (restore func()) {
	return Apply(map[string]*string{key: &value})
}
