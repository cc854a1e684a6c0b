package models

// GlobalRoom is the room key of the implicit global chat room. Messages in
// it are persisted with a NULL room id.
const GlobalRoom = ""

// DeriveRoomKey builds the shared private-room key for two steam IDs. The
// pair is sorted first so both participants derive the same key regardless
// of argument order. Self-pairing is allowed and yields a stable key.
func DeriveRoomKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}
