package directory

// wouldCreateCycle reports whether setting managerID as the manager of
// employeeID closes a loop in the reporting chain. managers maps employee id
// to current manager id ("" for none). A self-assignment is a cycle of
// length one.
func wouldCreateCycle(managers map[string]string, employeeID, managerID string) bool {
	seen := map[string]bool{employeeID: true}
	current := managerID
	for current != "" {
		if seen[current] {
			return true
		}
		seen[current] = true
		current = managers[current]
	}
	return false
}
