package auth

// CanModifyUser reports whether actor may modify the user identified by
// targetID. Administrators may modify anyone; everyone else only themselves.
func CanModifyUser(actor *User, targetID int64) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin {
		return true
	}
	return actor.ID == targetID
}

// CanModifyVehicle reports whether actor may modify a vehicle owned by
// ownerID. A nil ownerID (vehicle creation, or no recorded creator) is
// reserved for administrators; otherwise the creator may also act.
func CanModifyVehicle(actor *User, ownerID *int64) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin {
		return true
	}
	if ownerID == nil {
		return false
	}
	return actor.ID == *ownerID
}
