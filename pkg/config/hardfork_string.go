package config

// String implements the fmt.Stringer interface. It would normally be
// generated by `stringer -type=Hardfork -linecomment`, hand-written here
// since the enum is small and stable.
func (hf Hardfork) String() string {
	switch hf {
	case HFDefault:
		return "Default"
	case HFAspidochelone:
		return "Aspidochelone"
	case HFBasilisk:
		return "Basilisk"
	case HFCockatrice:
		return "Cockatrice"
	case HFDomovoi:
		return "Domovoi"
	case HFEchidna:
		return "Echidna"
	case HFFaun:
		return "Faun"
	default:
		return "Hardfork(" + string(rune('0'+byte(hf))) + ")"
	}
}
