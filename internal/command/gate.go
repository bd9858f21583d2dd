package command

// MinLevel refuses dispatch unless actor's level is at least n, the
// generalized form of the teacher's ad hoc builder/admin checks.
func MinLevel(n int) Gate {
	return func(a Actor) (bool, string) {
		if a.Level() < n {
			return false, "You are not experienced enough to do that."
		}
		return true, ""
	}
}

// RequireFlag refuses dispatch unless actor carries flag, reporting reason
// otherwise.
func RequireFlag(flag, reason string) Gate {
	return func(a Actor) (bool, string) {
		if !a.Flag(flag) {
			return false, reason
		}
		return true, ""
	}
}

// Forbid refuses dispatch when actor carries flag, reporting reason.
func Forbid(flag, reason string) Gate {
	return func(a Actor) (bool, string) {
		if a.Flag(flag) {
			return false, reason
		}
		return true, ""
	}
}

// All chains gates, refusing at the first one that fails.
func All(gates ...Gate) Gate {
	return func(a Actor) (bool, string) {
		for _, g := range gates {
			if ok, reason := g(a); !ok {
				return false, reason
			}
		}
		return true, ""
	}
}
