package services

// MaskingPolicy decides what contact phone value a viewer sees. Owners and
// viewers of tasks whose owner enabled shareCallerDetails get the raw E.164
// number; everyone else gets the middle digits starred out. Masking happens
// on the read path only, the stored value is always the raw number.
type MaskingPolicy struct {
	// PrefixLen is how many leading characters stay visible (the '+' plus
	// the country code digits). SuffixLen is how many trailing digits stay
	// visible. The 4/3 defaults match a 3-digit dialing code; longer codes
	// would need a different prefix, hence configuration rather than
	// constants.
	PrefixLen int
	SuffixLen int
}

func NewMaskingPolicy() *MaskingPolicy {
	return &MaskingPolicy{PrefixLen: 4, SuffixLen: 3}
}

// MaskPhone returns the phone value to expose to the viewer.
// Example: "+97455170700" -> "+974*****700" for a non-owner without sharing.
func (p *MaskingPolicy) MaskPhone(rawPhone string, viewerIsOwner bool, ownerShareCallerDetails bool) string {
	if rawPhone == "" {
		return rawPhone
	}
	if viewerIsOwner || ownerShareCallerDetails {
		return rawPhone
	}

	masked := []byte(rawPhone)
	for i := p.PrefixLen; i < len(masked)-p.SuffixLen; i++ {
		if masked[i] >= '0' && masked[i] <= '9' {
			masked[i] = '*'
		}
	}
	return string(masked)
}
