package idcodec

import "github.com/google/uuid"

// gtsNamespace is UUIDv5("gts") under the standard URL namespace, computed
// once at init and reused as the namespace for every identifier's derived
// UUID, matching spec §4.1's "deterministic name-based UUIDv5 ... using a
// namespace equal to UUIDv5('gts') under the standard URL namespace."
var gtsNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gts"))

// ToUUID derives the deterministic UUIDv5 for a GTS identifier. The
// identifier is parsed first, so both "gts://"- and bare-prefixed forms
// collapse to the same UUID for the same canonical text.
func ToUUID(id string) (uuid.UUID, error) {
	parsed, err := Parse(id)
	if err != nil {
		return uuid.UUID{}, err
	}
	return uuid.NewSHA1(gtsNamespace, []byte(parsed.Text)), nil
}
