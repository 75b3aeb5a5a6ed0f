package cert

import "fmt"

// resources accumulates the IP and AS entries of a single certificate
// under construction, validating overlap and duplicate-INHERIT
// constraints as entries are appended rather than in a later pass.
type resources struct {
	ips          []IPEntry
	as           []ASEntry
	ipInherit    map[AFI]bool
	asInherited  bool
}

func newResources() *resources {
	return &resources{ipInherit: make(map[AFI]bool)}
}

// appendIP enforces non-overlap: no overlap with a prior entry of the same
// AFI, and at most one INHERIT per AFI.
func (r *resources) appendIP(e IPEntry) error {
	if e.Variant == IPVariantInherit {
		if r.ipInherit[e.AFI] {
			return fmt.Errorf("duplicate INHERIT for AFI %s", e.AFI)
		}
		r.ipInherit[e.AFI] = true
		r.ips = append(r.ips, e)
		return nil
	}

	for _, existing := range r.ips {
		if existing.AFI != e.AFI || existing.Variant == IPVariantInherit {
			continue
		}
		if rangesOverlap(existing.Min, existing.Max, e.Min, e.Max) {
			return fmt.Errorf("overlapping IP resource in AFI %s", e.AFI)
		}
	}
	r.ips = append(r.ips, e)
	return nil
}

// appendAS enforces non-overlap: no overlap with a prior entry (inclusive
// intervals), and at most one INHERIT overall.
func (r *resources) appendAS(e ASEntry) error {
	if e.Variant == ASVariantInherit {
		if r.asInherited {
			return fmt.Errorf("duplicate INHERIT AS entry")
		}
		r.asInherited = true
		r.as = append(r.as, e)
		return nil
	}

	lo, hi := asBounds(e)
	for _, existing := range r.as {
		if existing.Variant == ASVariantInherit {
			continue
		}
		elo, ehi := asBounds(existing)
		if lo <= ehi && elo <= hi {
			return fmt.Errorf("overlapping AS resource")
		}
	}
	r.as = append(r.as, e)
	return nil
}

func asBounds(e ASEntry) (lo, hi uint32) {
	if e.Variant == ASVariantID {
		return e.ID, e.ID
	}
	return e.Min, e.Max
}

// rangesOverlap reports whether [aMin,aMax] and [bMin,bMax] are not
// disjoint, comparing lexicographically as byte strings (already
// zero/one padded to AFI width by the caller).
func rangesOverlap(aMin, aMax, bMin, bMax []byte) bool {
	return bytesCompare(aMin, bMax) <= 0 && bytesCompare(bMin, aMax) <= 0
}
