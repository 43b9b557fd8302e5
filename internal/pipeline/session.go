package pipeline

// Session is the per-run state shared by the pipeline's actions. It is
// created once per process, mutated only by the pipeline itself and the
// flag actions, and dropped at exit.
type Session struct {
	// Arch is the EFI architecture string used to pick the loader binary.
	// Empty means detect it from the machine's vendor loader.
	Arch string
	// ArchOverridden marks Arch as user-supplied rather than detected.
	ArchOverridden bool

	DryRun bool
	Batch  bool
	// Elevated marks a process relaunched across the elevation boundary;
	// it suppresses a second relaunch attempt.
	Elevated bool

	// AllowSecureBoot and AllowBadLoader are set by their flag actions and
	// gate the Secure Boot check and the post-enable verification.
	AllowSecureBoot bool
	AllowBadLoader  bool

	// SourceDir holds the shipped files an install copies onto the ESP:
	// the config file and the architecture-specific loader binaries.
	// Defaults to the executable's directory.
	SourceDir string
}

// ForwardArgs builds the argument vector handed to the elevated relaunch:
// the elevation marker, the session flags that must survive the hop, and
// the explicit action list. Nothing else from the original command line is
// carried across.
func (s *Session) ForwardArgs(actions []string) []string {
	args := []string{"--is-elevated"}
	if s.DryRun {
		args = append(args, "--dry-run")
	}
	if s.Batch {
		args = append(args, "--batch")
	}
	if s.ArchOverridden && s.Arch != "" {
		args = append(args, "--arch", s.Arch)
	}
	return append(args, actions...)
}
