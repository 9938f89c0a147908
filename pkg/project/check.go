package project

import "fmt"

// CheckResult reports drift between vx.yaml's dependency constraints and
// the committed vx-lock.yaml.
type CheckResult struct {
	Missing []string // declared in vx.yaml but absent from the lock file
	Stale   []string // locked version no longer satisfies the vx.yaml constraint
}

// OK reports whether the project's lock file is fully in sync with its manifest.
func (r CheckResult) OK() bool {
	return len(r.Missing) == 0 && len(r.Stale) == 0
}

// Check compares the manifest's declared dependencies against the lock
// file using a constraint checker (pkg/version.ParseConstraint + Check),
// injected so this package doesn't need to import pkg/version directly for
// every caller, CLI wiring passes version.ParseConstraint/Check in.
func Check(p *Project, satisfies func(constraint, lockedVersion string) (bool, error)) (CheckResult, error) {
	lock, err := ReadLockFile(p.LockPath())
	if err != nil {
		return CheckResult{}, err
	}
	if lock == nil {
		missing := make([]string, 0, len(p.Manifest.Dependencies))
		for name := range p.Manifest.Dependencies {
			missing = append(missing, name)
		}
		return CheckResult{Missing: missing}, nil
	}

	var result CheckResult
	for name, constraint := range p.Manifest.Dependencies {
		entry, ok := lock.Dependencies[name]
		if !ok {
			result.Missing = append(result.Missing, name)
			continue
		}

		ok, err = satisfies(constraint, entry.Version)
		if err != nil {
			return result, fmt.Errorf("checking %s: %w", name, err)
		}
		if !ok {
			result.Stale = append(result.Stale, name)
		}
	}
	return result, nil
}
