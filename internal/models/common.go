package models

// BloodGroups lists the eight ABO/Rh types the platform tracks.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// IsValidBloodGroup reports whether s is one of the eight ABO/Rh types.
func IsValidBloodGroup(s string) bool {
	for _, g := range BloodGroups {
		if g == s {
			return true
		}
	}
	return false
}
