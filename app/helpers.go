package app

import "strconv"

// parseAppID converts the string userId that crosses the process boundary
// into a numeric app record id. The two are treated as interchangeable;
// callers fail soft when the value is not numeric.
func parseAppID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}
