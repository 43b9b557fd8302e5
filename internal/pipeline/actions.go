package pipeline

// The fixed action vocabulary. An action list is an ordered script: the
// allow-* flags only affect actions that come after them.
const (
	ActionInstall          = "install"
	ActionAllowSecureBoot  = "allow-secure-boot"
	ActionAllowBadLoader   = "allow-bad-loader"
	ActionEnableEntry      = "enable-entry"
	ActionDisableEntry     = "disable-entry"
	ActionEnableBCDEdit    = "enable-bcdedit"
	ActionDisableBCDEdit   = "disable-bcdedit"
	ActionEnableOverwrite  = "enable-overwrite"
	ActionDisableOverwrite = "disable-overwrite"
	ActionDisable          = "disable"
	ActionUninstall        = "uninstall"
	ActionBootToFirmware   = "boot-to-fw"
)

// Actions lists the vocabulary in documentation order.
var Actions = []string{
	ActionInstall,
	ActionAllowSecureBoot,
	ActionAllowBadLoader,
	ActionEnableEntry,
	ActionDisableEntry,
	ActionEnableBCDEdit,
	ActionDisableBCDEdit,
	ActionEnableOverwrite,
	ActionDisableOverwrite,
	ActionDisable,
	ActionUninstall,
	ActionBootToFirmware,
}

// sessionFlags names the tokens that mutate session state instead of
// performing an operation. They never need privileges on their own.
var sessionFlags = map[string]bool{
	ActionAllowSecureBoot: true,
	ActionAllowBadLoader:  true,
}

// KnownAction reports whether token belongs to the vocabulary.
func KnownAction(token string) bool {
	for _, a := range Actions {
		if a == token {
			return true
		}
	}
	return false
}
