package security

// Verifier answers "does this password match this stored hash" while keeping
// the cost of a failed lookup indistinguishable from a failed comparison.
// It precomputes a dummy hash at construction; when a login attempt names a
// username that does not exist, the caller runs CompareDummy so total latency
// matches a real-user failed attempt. This anti-enumeration control must stay
// on every credential path.
type Verifier struct {
	hasher    *Hasher
	dummyHash string
}

// NewVerifier returns a Verifier backed by hasher. The dummy hash is computed
// once, at the hasher's configured cost, so per-request work is a single
// bcrypt comparison in all branches.
func NewVerifier(hasher *Hasher) (*Verifier, error) {
	dummy, err := hasher.Hash([]byte("dummy-password-for-timing-parity"))
	if err != nil {
		return nil, err
	}
	return &Verifier{hasher: hasher, dummyHash: dummy}, nil
}

// Verify reports whether password matches the stored hash.
func (v *Verifier) Verify(hash string, password []byte) bool {
	return v.hasher.Compare(hash, password) == nil
}

// CompareDummy burns one bcrypt comparison against the precomputed dummy hash
// and always reports false. Called when the looked-up user does not exist.
func (v *Verifier) CompareDummy(password []byte) bool {
	_ = v.hasher.Compare(v.dummyHash, password)
	return false
}
