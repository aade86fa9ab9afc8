package eligibility

// compatibility maps a donor blood group to the recipient groups it can
// serve. O- is the universal donor; AB+ is the universal recipient.
var compatibility = map[string][]string{
	"A+":  {"A+", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB+": {"AB+"},
	"A-":  {"A+", "A-", "AB+", "AB-"},
	"O-":  {"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
	"B-":  {"B+", "B-", "AB+", "AB-"},
	"AB-": {"AB+", "AB-"},
}

// CanDonateTo reports whether blood of the donor group can be given to a
// patient of the recipient group. Unknown groups are never compatible.
func CanDonateTo(donor, recipient string) bool {
	for _, r := range compatibility[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}

// CompatibleRecipients returns the recipient groups a donor group can
// serve, in table order.
func CompatibleRecipients(donor string) []string {
	out := make([]string, len(compatibility[donor]))
	copy(out, compatibility[donor])
	return out
}
